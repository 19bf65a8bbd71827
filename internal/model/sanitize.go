package model

// Masked replaces sensitive values in log output.
const Masked = "[MASKED]"

var sensitiveKeys = []string{KeyCiphertext, KeyIV, KeyTag, "senderPublicKey", "senderKeyVersion"}

// SanitizeForLog returns a copy of data with cryptographic material masked.
// The input is never modified.
func SanitizeForLog(data map[string]string) map[string]string {
	if data == nil {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range sensitiveKeys {
		if _, ok := out[k]; ok {
			out[k] = Masked
		}
	}
	return out
}

// SanitizedAttributes renders attributes as strings with the same masking.
func SanitizedAttributes(a Attributes) map[string]string {
	out := make(map[string]string, a.Len())
	a.Each(func(k string, v Value) { out[k] = v.String() })
	return SanitizeForLog(out)
}
