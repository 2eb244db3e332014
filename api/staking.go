// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/tidelock/tide/api/restutil"
	"github.com/tidelock/tide/eventdb"
	"github.com/tidelock/tide/ledger"
	"github.com/tidelock/tide/ledger/reverts"
	"github.com/tidelock/tide/tide"
)

// Staking exposes the ledger operations over HTTP.
type Staking struct {
	ledger *ledger.Ledger
	events *eventdb.EventDB
	now    func() uint64
}

// NewStaking creates the staking handler group. events may be nil.
func NewStaking(ldgr *ledger.Ledger, events *eventdb.EventDB) *Staking {
	return &Staking{
		ledger: ldgr,
		events: events,
		now:    func() uint64 { return uint64(time.Now().Unix()) },
	}
}

func (s *Staking) handleInitialize(w http.ResponseWriter, req *http.Request) error {
	var body InitializePool
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	pool, err := s.ledger.Initialize(
		body.Authority, body.Asset, body.EmissionCap,
		body.FlexRateBps, body.CoreRateBps, body.PrimeRateBps,
		s.now(),
	)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPool(pool))
}

func (s *Staking) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	pool, err := s.ledger.GetPool(asset)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPool(pool))
}

func (s *Staking) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	owner, err := tide.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "owner"))
	}

	pos, err := s.ledger.GetPosition(asset, owner)
	if err != nil {
		return convertLedgerError(err)
	}
	now := s.now()
	pending, err := s.ledger.PendingRewards(asset, owner, now)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPosition(pos, pending, now))
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body StakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	tier, err := tide.ParseTier(body.Tier)
	if err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "tier"))
	}

	now := s.now()
	pos, err := s.ledger.Stake(asset, body.Caller, body.Amount, tier, now)
	if err != nil {
		return convertLedgerError(err)
	}
	pending, err := s.ledger.PendingRewards(asset, body.Caller, now)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPosition(pos, pending, now))
}

func (s *Staking) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body UnstakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	now := s.now()
	pos, err := s.ledger.Unstake(asset, body.Caller, body.Amount, now)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPosition(pos, pos.PendingRewards, now))
}

func (s *Staking) handleClaim(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body CallerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	claimed, err := s.ledger.Claim(asset, body.Caller, s.now())
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, &ClaimResponse{Claimed: claimed})
}

func (s *Staking) handleFund(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body FundRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	if err := s.ledger.FundTreasury(asset, body.Caller, body.Amount, s.now()); err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"funded": body.Amount})
}

func (s *Staking) handleSetPaused(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body SetPausedRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	if err := s.ledger.SetPaused(asset, body.Caller, body.Paused, s.now()); err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"paused": body.Paused})
}

func (s *Staking) handleAdjustRates(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body AdjustRatesRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	err = s.ledger.AdjustRates(asset, body.Caller, body.FlexRateBps, body.CoreRateBps, body.PrimeRateBps, s.now())
	if err != nil {
		return convertLedgerError(err)
	}
	pool, err := s.ledger.GetPool(asset)
	if err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, convertPool(pool))
}

func (s *Staking) handleUpdateEmissionCap(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body UpdateEmissionCapRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	if err := s.ledger.UpdateEmissionCap(asset, body.Caller, body.NewCap, s.now()); err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"emissionCap": body.NewCap})
}

func (s *Staking) handleTransferAuthority(w http.ResponseWriter, req *http.Request) error {
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}
	var body TransferAuthorityRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(pkgerrors.WithMessage(err, "body"))
	}

	if err := s.ledger.TransferAuthority(asset, body.Caller, body.NewAuthority, s.now()); err != nil {
		return convertLedgerError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"authority": body.NewAuthority})
}

func (s *Staking) handleGetEvents(w http.ResponseWriter, req *http.Request) error {
	if s.events == nil {
		return restutil.HTTPError(errors.New("event history disabled"), http.StatusNotImplemented)
	}
	asset, err := s.assetVar(req)
	if err != nil {
		return err
	}

	limit := 0
	if q := req.URL.Query().Get("limit"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil {
			return restutil.BadRequest(pkgerrors.WithMessage(err, "limit"))
		}
	}

	events, err := s.events.Filter(req.Context(), asset, limit)
	if err != nil {
		return err
	}
	converted := make([]*EventResponse, 0, len(events))
	for _, ev := range events {
		converted = append(converted, convertEvent(ev))
	}
	return restutil.WriteJSON(w, converted)
}

func (s *Staking) assetVar(req *http.Request) (tide.Address, error) {
	asset, err := tide.ParseAddress(mux.Vars(req)["asset"])
	if err != nil {
		return tide.Address{}, restutil.BadRequest(pkgerrors.WithMessage(err, "asset"))
	}
	return asset, nil
}

// convertLedgerError maps operation failures to http status codes.
func convertLedgerError(err error) error {
	switch {
	case errors.Is(err, reverts.ErrUnauthorized), errors.Is(err, reverts.ErrNotOwner):
		return restutil.Forbidden(err)
	case errors.Is(err, reverts.ErrPoolNotFound), errors.Is(err, reverts.ErrNoActiveStake):
		return restutil.NotFound(err)
	case reverts.IsRevertErr(err):
		return restutil.BadRequest(err)
	default:
		return err
	}
}

// Mount attaches the staking endpoints to the router.
func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleInitialize))
	sub.Path("/{asset}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPool))
	sub.Path("/{asset}/positions/{owner}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPosition))
	sub.Path("/{asset}/stake").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/{asset}/unstake").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/{asset}/claim").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleClaim))
	sub.Path("/{asset}/fund").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleFund))
	sub.Path("/{asset}/paused").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleSetPaused))
	sub.Path("/{asset}/rates").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleAdjustRates))
	sub.Path("/{asset}/emission-cap").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleUpdateEmissionCap))
	sub.Path("/{asset}/authority").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(s.handleTransferAuthority))
	sub.Path("/{asset}/events").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(s.handleGetEvents))
}
