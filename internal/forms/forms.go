// Package forms holds the closed set of form shapes a template can be filled with.
// The shape is chosen by the owning template's name.
package forms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin/binding"
)

const (
	BuySellContract       = "BuySellContract"
	LegalServicesContract = "LegalServicesContract"
)

var (
	ErrUnsupportedTemplate = errors.New("unsupported template")
	ErrInvalidData         = errors.New("data does not match template")
)

// Form is submitted data for one template shape.
type Form interface {
	// Values maps placeholder keys to their rendered replacement text.
	Values() map[string]string
}

type BuySellContractData struct {
	SellerName string  `json:"seller_name" binding:"required"`
	BuyerName  string  `json:"buyer_name" binding:"required"`
	Item       string  `json:"item" binding:"required"`
	Price      float64 `json:"price" binding:"required,gt=0"`
}

func (d *BuySellContractData) Values() map[string]string {
	return map[string]string{
		"seller_name": d.SellerName,
		"buyer_name":  d.BuyerName,
		"item":        d.Item,
		"price":       formatAmount(d.Price),
	}
}

type LegalServicesContractData struct {
	ClientName         string  `json:"client_name" binding:"required"`
	ProviderName       string  `json:"provider_name" binding:"required"`
	ServiceDescription string  `json:"service_description" binding:"required"`
	Fee                float64 `json:"fee" binding:"required,gt=0"`
	ContractDate       string  `json:"contract_date"`
}

func (d *LegalServicesContractData) Values() map[string]string {
	return map[string]string{
		"client_name":         d.ClientName,
		"provider_name":       d.ProviderName,
		"service_description": d.ServiceDescription,
		"fee":                 formatAmount(d.Fee),
		"contract_date":       d.ContractDate,
	}
}

var shapes = map[string]func() Form{
	BuySellContract:       func() Form { return &BuySellContractData{} },
	LegalServicesContract: func() Form { return &LegalServicesContractData{} },
}

// Supported returns the template names that have a form shape, sorted.
func Supported() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether templateName selects a known form shape.
func IsSupported(templateName string) bool {
	_, ok := shapes[templateName]
	return ok
}

// Decode parses raw JSON into the shape selected by templateName. Unknown
// fields, missing required fields and out-of-range values are rejected.
func Decode(templateName string, raw []byte) (Form, error) {
	newForm, ok := shapes[templateName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTemplate, templateName)
	}
	form := newForm()

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(form); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, templateName, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: %s: trailing data after JSON object", ErrInvalidData, templateName)
	}
	if err := binding.Validator.ValidateStruct(form); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, templateName, err)
	}
	return form, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
