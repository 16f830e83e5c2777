/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package registration derives route identifiers, bank usage codes and referral display codes.
// Everything here is a pure function of its inputs.
package registration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"fiat-bridge-registry-go/internal/models"
)

// BuyRouteId is the primary key of a fiat to crypto route
func BuyRouteId(address string, assetId int64) string {
	return address + ":" + strconv.FormatInt(assetId, 10)
}

// SellRouteId is the primary key of a crypto to fiat route
func SellRouteId(address string, fiatId int64) string {
	return address + ":" + strconv.FormatInt(fiatId, 10)
}

// BankUsage returns the payment reference a user quotes on a bank transfer:
// the first 12 upper-case hex digits of SHA-256(domain|counterpartyId|address|iban),
// grouped as XXXX-XXXX-XXXX.
func BankUsage(domain string, counterpartyId int64, address, iban string) string {
	payload := strings.Join([]string{domain, strconv.FormatInt(counterpartyId, 10), address, iban}, "|")
	sum := sha256.Sum256([]byte(payload))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	return digest[0:4] + "-" + digest[4:8] + "-" + digest[8:12]
}

// DirectionDomain scopes a configured domain constant to a route direction so
// buy and sell references for the same inputs never coincide.
func DirectionDomain(domain string, direction models.Direction) string {
	return domain + "/" + string(direction)
}

const refDigits = 7

// FormatRef renders a referral code as XXX-XXXX
func FormatRef(ref int64) string {
	digits := fmt.Sprintf("%0*d", refDigits, ref)
	split := len(digits) - 4
	return digits[:split] + "-" + digits[split:]
}

// FormatRefPtr renders an optional referral code
func FormatRefPtr(ref *int64) *string {
	if ref == nil {
		return nil
	}
	formatted := FormatRef(*ref)
	return &formatted
}

// ParseRef accepts either the XXX-XXXX display form or plain digits.
func ParseRef(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("empty referral code")
	}

	if i := strings.IndexByte(trimmed, '-'); i >= 0 {
		if i == 0 || len(trimmed)-i-1 != 4 || strings.Count(trimmed, "-") != 1 {
			return 0, fmt.Errorf("malformed referral code %q", value)
		}
		trimmed = trimmed[:i] + trimmed[i+1:]
	}

	ref, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || ref < 0 {
		return 0, fmt.Errorf("malformed referral code %q", value)
	}
	return ref, nil
}
