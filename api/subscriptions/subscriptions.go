// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/api/utils"
	"github.com/stakelock/lockbox/co"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
)

const entryQueueSize = 64

var logger = log.WithContext("pkg", "subscriptions")

// Subscriptions pushes committed journal entries to websocket clients.
type Subscriptions struct {
	stakeFeed *stakeFeed
	upgrader  *websocket.Upgrader
	choes     *co.Choes
}

func New(ledger *ledger.Ledger, allowedOrigins []string) *Subscriptions {
	sub := &Subscriptions{
		stakeFeed: newStakeFeed(ledger),
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(req *http.Request) bool {
				origin := req.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		choes: co.NewChoes(),
	}

	sub.choes.Go(func(stop chan struct{}) {
		sub.stakeFeed.DispatchLoop(stop)
	})
	return sub
}

func (s *Subscriptions) handleSubscribeStakes(w http.ResponseWriter, req *http.Request) error {
	var account *lockbox.Address
	if v := req.URL.Query().Get("address"); v != "" {
		addr, err := lockbox.ParseAddress(v)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "address"))
		}
		account = &addr
	}

	conn, closed, err := s.setupConn(w, req)
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return err
	}

	entryCh := make(chan *ledger.Entry, entryQueueSize)
	s.stakeFeed.Subscribe(entryCh)

	// the pump runs under choes, so Close can stop it and wait for
	// connection teardown
	done := make(chan struct{})
	var pumpErr error
	s.choes.Go(func(stop chan struct{}) {
		defer close(done)
		defer func() {
			s.stakeFeed.Unsubscribe(entryCh)
			s.closeConn(conn, pumpErr)
		}()

		for {
			select {
			case entry := <-entryCh:
				if account != nil && *account != entry.Account {
					continue
				}
				if err := conn.WriteJSON(convertEntry(entry)); err != nil {
					pumpErr = err
					return
				}
			case <-stop:
				return
			case <-closed:
				return
			}
		}
	})
	<-done
	return pumpErr
}

// setupConn upgrades the request and watches the peer for disconnect.
func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			// the client does not send messages, reads only serve to
			// detect the closed connection
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err != nil {
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	}
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
		logger.Debug("write close message", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("close websocket", "err", err)
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/stakes").
		Methods(http.MethodGet).
		Name("subscriptions_stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeStakes))
}

// Close stops the dispatcher and waits for open connections to wind down.
func (s *Subscriptions) Close() {
	s.choes.Stop()
	s.choes.Wait()
}
