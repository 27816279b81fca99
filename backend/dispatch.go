// Package backend implements the closed set of transport backends —
// find tool, get tool and DICOMweb — and the dispatcher that selects the
// single capable backend for a server, operation and hierarchy level.
package backend

import (
	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/interfaces"
	"github.com/openrad/dcmfetch/types"
)

// Set holds the constructed backends available to a client. A nil entry
// means the backend is unavailable (e.g. the dcm4che toolkit was not
// found), which disables the corresponding facility.
type Set struct {
	Web  *Web
	Find *FindTool
	Get  *GetTool
}

// QuerierFor selects the query backend for a server and level. Web is
// preferred over the find tool when a server advertises both facilities.
func (s *Set) QuerierFor(srv *aettable.Server, level types.Level) (interfaces.Querier, error) {
	var q interfaces.Querier
	switch {
	case srv.HasFacility(aettable.FacilityWeb) && s.Web != nil:
		q = s.Web
	case srv.HasFacility(aettable.FacilityFind) && s.Find != nil:
		q = s.Find
	default:
		return nil, errors.NewUnsupportedServerError(srv.Name, "query")
	}

	if !supportsLevel(q.QueryLevels(), level) {
		return nil, errors.NewUnsupportedLevelError(q.Name(), level, q.QueryLevels())
	}
	return q, nil
}

// FetcherFor selects the fetch backend for a server and level. Web is
// preferred over the get tool when a server advertises both facilities.
func (s *Set) FetcherFor(srv *aettable.Server, level types.Level) (interfaces.Fetcher, error) {
	var f interfaces.Fetcher
	switch {
	case srv.HasFacility(aettable.FacilityWeb) && s.Web != nil:
		f = s.Web
	case srv.HasFacility(aettable.FacilityGet) && s.Get != nil:
		f = s.Get
	default:
		return nil, errors.NewUnsupportedServerError(srv.Name, "fetch")
	}

	if !supportsLevel(f.FetchLevels(), level) {
		return nil, errors.NewUnsupportedLevelError(f.Name(), level, f.FetchLevels())
	}
	return f, nil
}

func supportsLevel(levels []types.Level, level types.Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
