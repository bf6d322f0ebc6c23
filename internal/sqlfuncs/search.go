package sqlfuncs

import (
	"context"

	"github.com/allthingsida/idasql/internal/workspace"
)

// searchBytes returns every matching address as a JSON array of
// {"address": ea} objects (spec §4.D "search_bytes(pattern[, start,
// end]) returns a JSON array of {address}").
func (f *Funcs) searchBytes(pattern string) (string, error) {
	return f.searchBytesRange(pattern, 0, 0)
}

func (f *Funcs) searchBytesRange(pattern string, start int64, end int64) (string, error) {
	rng := addrRange(start, end)
	var addrs []int64
	err := f.Adapter.SearchBytes(context.Background(), workspace.SearchPattern{Raw: pattern}, rng, func(ea workspace.EA) bool {
		addrs = append(addrs, int64(ea))
		return true
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(jsonAddrList(addrs))
}

// searchFirst stops at the first match (spec §4.D "search_first ...
// returns a scalar first address or NULL").
func (f *Funcs) searchFirst(pattern string) (*int64, error) {
	return f.searchFirstRange(pattern, 0, 0)
}

func (f *Funcs) searchFirstRange(pattern string, start int64, end int64) (*int64, error) {
	rng := addrRange(start, end)
	var found *int64
	err := f.Adapter.SearchBytes(context.Background(), workspace.SearchPattern{Raw: pattern}, rng, func(ea workspace.EA) bool {
		v := int64(ea)
		found = &v
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// addrRange builds an *AddrRange from a (start,end) pair, nil (whole
// address space) when both are zero.
func addrRange(start, end int64) *workspace.AddrRange {
	if start == 0 && end == 0 {
		return nil
	}
	return &workspace.AddrRange{Start: workspace.EA(start), End: workspace.EA(end)}
}
