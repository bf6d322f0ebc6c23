package sqlfuncs

import "encoding/json"

// marshalJSON is the shared text-encoding used by every SQL function
// that returns a JSON array/object as spec §4.D requires
// (decode_insn, list_lvars, search_bytes, jump_search, xrefs_to/from).
func marshalJSON(v any) (string, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
