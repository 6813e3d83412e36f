package logger

// Standard field names.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldFilename   = "filename"
	FieldPath       = "path"
	FieldSizeBytes  = "size_bytes"
	FieldMimeType   = "mime_type"
	FieldProvider   = "provider"
	FieldDurationMs = "duration_ms"
)

// Fields builds a field map from alternating key/value pairs. A trailing
// key without a value is dropped.
func Fields(kvs ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		fields[key] = kvs[i+1]
	}
	return fields
}
