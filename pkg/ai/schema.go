package ai

import "github.com/santhosh-tekuri/jsonschema/v5"

const gradingResponseSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question_id", "score"],
        "properties": {
          "question_id": {"type": ["string", "integer"]},
          "score": {"type": "number"},
          "suggested_answer": {"type": "string"}
        }
      }
    }
  }
}`

var gradingResponseSchema = jsonschema.MustCompileString("grading_response.schema.json", gradingResponseSchemaJSON)
