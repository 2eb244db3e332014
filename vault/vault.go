// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements the custodial value-transfer primitive. A
// transfer is atomic and all-or-nothing: both balances move in a single
// batch write, or neither does.
package vault

import (
	"math"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tidelock/tide/kv"
	"github.com/tidelock/tide/log"
	"github.com/tidelock/tide/tide"
)

var logger = log.WithContext("pkg", "vault")

const bucketAccounts kv.Bucket = "vault-accounts"

// ErrInsufficientFunds rejects a transfer whose source balance is too small.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Vault keeps token balances keyed by account identity.
type Vault struct {
	accounts kv.GetPutter
}

// New creates a vault over the given store.
func New(store kv.GetPutter) *Vault {
	return &Vault{accounts: bucketAccounts.NewStore(store)}
}

// Balance returns the balance of an account. Unknown accounts hold zero.
func (v *Vault) Balance(addr tide.Address) (uint64, error) {
	data, err := v.accounts.Get(addr.Bytes())
	if err != nil {
		if v.accounts.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get balance")
	}
	var balance uint64
	if err := rlp.DecodeBytes(data, &balance); err != nil {
		return 0, errors.Wrap(err, "failed to decode balance")
	}
	return balance, nil
}

// Deposit credits amount to an account.
func (v *Vault) Deposit(addr tide.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := v.Balance(addr)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return errors.New("balance overflow")
	}
	if err := v.putBalance(v.accounts, addr, balance+amount); err != nil {
		return err
	}
	logger.Debug("deposited", "addr", addr, "amount", amount)
	return nil
}

// Transfer moves amount between two accounts. It fails with
// ErrInsufficientFunds when the source holds less than amount, leaving both
// balances untouched.
func (v *Vault) Transfer(from, to tide.Address, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}

	fromBalance, err := v.Balance(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return errors.Wrapf(ErrInsufficientFunds, "transfer %d from %s", amount, from)
	}
	toBalance, err := v.Balance(to)
	if err != nil {
		return err
	}
	if toBalance > math.MaxUint64-amount {
		return errors.New("balance overflow")
	}

	batch := v.accounts.NewBatch()
	if err := v.putBalance(batch, from, fromBalance-amount); err != nil {
		return err
	}
	if err := v.putBalance(batch, to, toBalance+amount); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "failed to commit transfer")
	}

	logger.Debug("transferred", "from", from, "to", to, "amount", amount)
	return nil
}

func (v *Vault) putBalance(putter kv.Putter, addr tide.Address, balance uint64) error {
	data, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return errors.Wrap(err, "failed to encode balance")
	}
	return putter.Put(addr.Bytes(), data)
}
