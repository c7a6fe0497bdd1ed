// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/api/utils"
	"github.com/stakelock/lockbox/eventdb"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
)

type Events struct {
	eventDB *eventdb.EventDB
	limit   uint64
}

func New(eventDB *eventdb.EventDB, limit uint64) *Events {
	return &Events{eventDB, limit}
}

func (e *Events) handleFilterEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req.URL.Query())
	if err != nil {
		return utils.BadRequest(err)
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options == nil {
		// query one row past the window to tell a full window from an
		// overflowing one
		filter.Options = &eventdb.Options{Limit: e.limit + 1}
	}

	entries, err := e.eventDB.Filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if len(entries) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}

	events := make([]*FilteredEvent, len(entries))
	for i, entry := range entries {
		events[i] = convertEntry(entry)
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) parseFilter(q url.Values) (*eventdb.Filter, error) {
	var filter eventdb.Filter
	if v := q.Get("address"); v != "" {
		addr, err := lockbox.ParseAddress(v)
		if err != nil {
			return nil, errors.WithMessage(err, "address")
		}
		filter.Account = &addr
	}
	if v := q.Get("kind"); v != "" {
		for _, name := range strings.Split(v, ",") {
			kind, err := ledger.ParseKind(strings.TrimSpace(name))
			if err != nil {
				return nil, errors.WithMessage(err, "kind")
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}

	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr != "" || toStr != "" {
		r := &eventdb.Range{Unit: eventdb.Seq}
		switch unit := q.Get("unit"); unit {
		case "", string(eventdb.Seq):
		case string(eventdb.Time):
			r.Unit = eventdb.Time
		default:
			return nil, fmt.Errorf("unit: invalid value %q", unit)
		}
		if fromStr != "" {
			from, err := strconv.ParseUint(fromStr, 10, 64)
			if err != nil {
				return nil, errors.WithMessage(err, "from")
			}
			r.From = from
		}
		if toStr != "" {
			to, err := strconv.ParseUint(toStr, 10, 64)
			if err != nil {
				return nil, errors.WithMessage(err, "to")
			}
			if to < r.From {
				return nil, errors.New("to: must not precede from")
			}
			r.To = to
		} else if r.From == 0 {
			// no bound on either end
			r = nil
		}
		filter.Range = r
	}

	switch order := q.Get("order"); order {
	case "", string(eventdb.ASC):
		filter.Order = eventdb.ASC
	case string(eventdb.DESC):
		filter.Order = eventdb.DESC
	default:
		return nil, fmt.Errorf("order: invalid value %q", order)
	}

	limitStr, offsetStr := q.Get("limit"), q.Get("offset")
	if limitStr != "" || offsetStr != "" {
		options := &eventdb.Options{Limit: e.limit}
		if limitStr != "" {
			limit, err := strconv.ParseUint(limitStr, 10, 64)
			if err != nil {
				return nil, errors.WithMessage(err, "limit")
			}
			options.Limit = limit
		}
		if offsetStr != "" {
			offset, err := strconv.ParseUint(offsetStr, 10, 64)
			if err != nil {
				return nil, errors.WithMessage(err, "offset")
			}
			options.Offset = offset
		}
		filter.Options = options
	}
	return &filter, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("events_filter_events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilterEvents))
}
