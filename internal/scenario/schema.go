package scenario

// documentSchema rejects unknown fields and wrong types in scenario files
// before any traffic is generated.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "server": {"type": "string"},
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "type": {"type": "string", "enum": ["lru", "fifo", "mru", "ttl"]},
        "capacity": {"type": "integer", "minimum": 1},
        "ttl": {"type": "integer", "minimum": 1}
      }
    },
    "keys": {"type": "integer", "minimum": 1},
    "operations": {"type": "integer", "minimum": 1},
    "workers": {"type": "integer", "minimum": 1},
    "weights": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "get": {"type": "integer", "minimum": 0},
        "put": {"type": "integer", "minimum": 0},
        "delete": {"type": "integer", "minimum": 0}
      }
    },
    "value_bound": {"type": "integer", "minimum": 1},
    "initial_value": {"type": "string"},
    "strict_status": {"type": "boolean"}
  }
}`
