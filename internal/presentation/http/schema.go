package httppresentation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Zhima-Mochi/storefront/internal/application"
)

const schemaAddress = `{
	"type": "object",
	"required": ["line1", "city", "zip", "country"],
	"properties": {
		"line1":   {"type": "string", "minLength": 1},
		"line2":   {"type": "string"},
		"city":    {"type": "string", "minLength": 1},
		"state":   {"type": "string"},
		"zip":     {"type": "string", "minLength": 1},
		"country": {"type": "string", "minLength": 1}
	}
}`

const schemaOrderItems = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["product_id", "quantity"],
		"properties": {
			"product_id": {"type": "string", "minLength": 1},
			"quantity":   {"type": "integer", "minimum": 1}
		}
	}
}`

const schemaProduct = `{
	"type": "object",
	"required": ["sku", "name", "price", "category"],
	"properties": {
		"sku":      {"type": "string", "minLength": 1},
		"name":     {"type": "string", "minLength": 1},
		"price":    {"type": ["string", "number"]},
		"stock":    {"type": "integer", "minimum": 0},
		"weight":   {"type": "number", "minimum": 0},
		"category": {"type": "string", "minLength": 1},
		"tags":     {"type": "array", "items": {"type": "string"}},
		"images":   {"type": "array", "items": {"type": "string"}}
	}
}`

const schemaSignup = `{
	"type": "object",
	"required": ["email", "password", "first_name"],
	"properties": {
		"email":      {"type": "string", "format": "email"},
		"password":   {"type": "string"},
		"first_name": {"type": "string", "minLength": 1}
	}
}`

const schemaPlaceOrder = `{
	"type": "object",
	"required": ["items", "shipping_address"],
	"properties": {
		"items": ` + schemaOrderItems + `,
		"shipping_address": ` + schemaAddress + `
	}
}`

const schemaVerifyPayment = `{
	"type": "object",
	"required": ["razorpay_order_id", "razorpay_payment_id", "razorpay_signature", "order"],
	"properties": {
		"razorpay_order_id":   {"type": "string", "minLength": 1},
		"razorpay_payment_id": {"type": "string", "minLength": 1},
		"razorpay_signature":  {"type": "string"},
		"order": ` + schemaPlaceOrder + `
	}
}`

const schemaBanner = `{
	"type": "object",
	"required": ["name", "title", "subtitle", "cta_text", "image_url", "order"],
	"properties": {
		"name":      {"type": "string", "minLength": 1},
		"title":     {"type": "string", "minLength": 1},
		"subtitle":  {"type": "string", "minLength": 1},
		"cta_text":  {"type": "string", "minLength": 1},
		"image_url": {"type": "string", "minLength": 1},
		"link_url":  {"type": "string"},
		"is_active": {"type": "boolean"},
		"order":     {"type": "integer", "minimum": 0}
	}
}`

const schemaRecordTransaction = `{
	"type": "object",
	"required": ["order_id", "gateway_transaction_id", "amount", "currency"],
	"properties": {
		"order_id":               {"type": "string", "minLength": 1},
		"gateway_transaction_id": {"type": "string", "minLength": 1},
		"gateway":                {"type": "string"},
		"amount":                 {"type": ["string", "number"]},
		"currency":               {"type": "string", "minLength": 1},
		"status":                 {"type": "string", "enum": ["", "pending", "successful", "failed"]},
		"raw_response":           {"type": "object"}
	}
}`

var (
	productLoader       = gojsonschema.NewStringLoader(schemaProduct)
	signupLoader        = gojsonschema.NewStringLoader(schemaSignup)
	placeOrderLoader    = gojsonschema.NewStringLoader(schemaPlaceOrder)
	verifyPaymentLoader = gojsonschema.NewStringLoader(schemaVerifyPayment)

	bannerLoader            = gojsonschema.NewStringLoader(schemaBanner)
	recordTransactionLoader = gojsonschema.NewStringLoader(schemaRecordTransaction)
)

// validateSchema reports every violation in one validation error.
func validateSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return application.Invalid(fmt.Errorf("malformed body: %w", err))
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return application.Invalid(errors.New("request does not conform to schema: " + strings.Join(msgs, "; ")))
}
