package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"calpoint/pkg/proof"
)

// proofSchema constrains the JSON wire form. Tree shape violations are
// caught here, before unmarshalling, so the flattener can assume a
// well-formed tree.
const proofSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "calpoint proof",
  "type": "object",
  "required": ["hash", "hash_id_node", "branches"],
  "properties": {
    "@context": { "type": "string" },
    "type": { "type": "string" },
    "hash": { "type": "string", "pattern": "^[0-9a-fA-F]{40,128}$" },
    "hash_id_node": { "type": "string", "minLength": 1 },
    "hash_id_core": { "type": "string" },
    "hash_submitted_node_at": { "type": "string" },
    "hash_submitted_core_at": { "type": "string" },
    "branches": {
      "type": "array",
      "items": { "$ref": "#/definitions/branch" }
    }
  },
  "definitions": {
    "branch": {
      "type": "object",
      "properties": {
        "label": { "type": "string" },
        "raw_btc_tx": { "type": "string" },
        "anchors": {
          "type": "array",
          "items": { "$ref": "#/definitions/anchor" }
        },
        "branches": {
          "type": "array",
          "items": { "$ref": "#/definitions/branch" }
        }
      }
    },
    "anchor": {
      "type": "object",
      "required": ["type", "anchor_id", "expected_value"],
      "properties": {
        "type": { "type": "string", "minLength": 1 },
        "anchor_id": { "type": "string" },
        "uris": {
          "type": "array",
          "items": { "type": "string" }
        },
        "expected_value": { "type": "string" }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("proof.schema.json", proofSchema)

// validateSchema checks a JSON proof document against the proof schema.
func validateSchema(data []byte) error {
	var instance any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("%w: %v", proof.ErrMalformedProof, err)
	}
	if err := compiledSchema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", proof.ErrMalformedProof, err)
	}
	return nil
}
