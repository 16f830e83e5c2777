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

// Package validation checks caller-supplied values before they reach the store.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	AddressPrefix   = "8"
	AddressLength   = 34
	SignatureLength = 88
)

// Reason is the enumerated cause of a validation failure. API clients branch on it.
type Reason string

const (
	MissingAddress         Reason = "MissingAddress"
	MissingSignature       Reason = "MissingSignature"
	InvalidAddressFormat   Reason = "InvalidAddressFormat"
	InvalidSignatureFormat Reason = "InvalidSignatureFormat"
	ForbiddenContent       Reason = "ForbiddenContent"
	InvalidIban            Reason = "InvalidIban"
	InvalidRef             Reason = "InvalidRef"
	InvalidField           Reason = "InvalidField"
	AssetNotBuyable        Reason = "AssetNotBuyable"
	FiatNotEnabled         Reason = "FiatNotEnabled"
)

type ValidationError struct {
	Reason Reason
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Field)
	}
	return string(e.Reason)
}

// Fail builds a ValidationError
func Fail(reason Reason, field, detail string) error {
	return &ValidationError{Reason: reason, Field: field, Detail: detail}
}

// ReasonOf extracts the Reason from err, if err wraps a ValidationError.
func ReasonOf(err error) (Reason, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason, true
	}
	return "", false
}

// ValidateCredentials checks the syntactic shape of an address/signature pair.
func ValidateCredentials(address, signature string) error {
	if address == "" {
		return Fail(MissingAddress, "address", "")
	}
	if signature == "" {
		return Fail(MissingSignature, "signature", "")
	}
	if !strings.HasPrefix(address, AddressPrefix) || len(address) != AddressLength {
		return Fail(InvalidAddressFormat, "address",
			fmt.Sprintf("address must start with %q and be %d characters", AddressPrefix, AddressLength))
	}
	if len(signature) != SignatureLength || !strings.HasSuffix(signature, "=") {
		return Fail(InvalidSignatureFormat, "signature",
			fmt.Sprintf("signature must be %d characters ending in '='", SignatureLength))
	}
	return nil
}

// Every store query is parameterized; this list only catches obviously hostile input early.
var forbiddenWords = []string{
	"SELECT", "FROM", "WHERE", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE",
	"ALTER", "TABLE", "INDEX", "VIEW", "ORDER", "GROUP", "BY", "INTO",
}

// ValidateField rejects free-form values containing any SQL control word,
// case-insensitive and anywhere in the value. Identifiers such as addresses
// and external ids must not be passed here.
func ValidateField(name, value string) error {
	upper := strings.ToUpper(value)
	for _, word := range forbiddenWords {
		if strings.Contains(upper, word) {
			return Fail(ForbiddenContent, name, fmt.Sprintf("%s contains forbidden word %q", name, word))
		}
	}
	return nil
}

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)

// NormalizeIban strips whitespace, upper-cases and checks the basic IBAN shape.
func NormalizeIban(iban string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(iban), ""))
	if normalized == "" {
		return "", Fail(InvalidIban, "iban", "iban is required")
	}
	if !ibanPattern.MatchString(normalized) {
		return "", Fail(InvalidIban, "iban", "iban must be 15-34 alphanumeric characters starting with a country code")
	}
	return normalized, nil
}

// ValidateCatalogName checks an asset or fiat name
func ValidateCatalogName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Fail(InvalidField, "name", "name is required")
	}
	return ValidateField("name", name)
}
