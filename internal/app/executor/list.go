package executor

import (
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// listQuery turns a LIST payload into a date window relative to today.
// Weeks start on Monday.
func (r *run) listQuery(p domain.ListPayload) (domain.ListQuery, *domain.Response) {
	scope := p.Scope
	if scope == "" {
		scope = domain.ScopeToday
	}
	now := r.e.opts.Now()

	switch scope {
	case domain.ScopeToday:
		return domain.ListQuery{Scope: scope, Exact: now.Format(dateLayout)}, nil
	case domain.ScopeDate:
		d, ok := r.resolveDate(p.Date)
		if !ok {
			resp := domain.ErrorResponse(domain.MsgInvalidDate)
			return domain.ListQuery{}, &resp
		}
		return domain.ListQuery{Scope: scope, Exact: d}, nil
	case domain.ScopeWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return domain.ListQuery{Scope: scope, Since: now.AddDate(0, 0, -offset).Format(dateLayout)}, nil
	case domain.ScopeMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return domain.ListQuery{Scope: scope, Since: first.Format(dateLayout)}, nil
	}

	resp := domain.ErrorResponse(domain.MsgInvalidScope)
	return domain.ListQuery{}, &resp
}
