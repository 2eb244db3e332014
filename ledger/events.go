// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/tidelock/tide/tide"

// Operation names recorded in the event history.
const (
	OpInitialize        = "initialize"
	OpStake             = "stake"
	OpUnstake           = "unstake"
	OpClaim             = "claim"
	OpFundTreasury      = "fund-treasury"
	OpSetPaused         = "set-paused"
	OpAdjustRates       = "adjust-rates"
	OpUpdateEmissionCap = "update-emission-cap"
	OpTransferAuthority = "transfer-authority"
)

// Event describes a committed ledger operation.
type Event struct {
	Time   uint64
	Op     string
	Pool   tide.Address
	Actor  tide.Address
	Amount uint64
}

// EventRecorder persists committed operation events. Recording happens after
// the state commit; a recording failure never rolls the operation back.
type EventRecorder interface {
	Record(ev *Event) error
}
