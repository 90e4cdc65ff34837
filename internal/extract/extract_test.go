package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
)

const acmeResponse = `{"vendor_name":"Acme Corp","amount":1200,"products":[{"name":"Widget","quantity":2,"unit_price":600,"total":1200}],"total_amount":1200,"date":"2024-01-05"}`

func fixed(response string, prompts *[]string) llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if prompts != nil {
			*prompts = append(*prompts, prompt)
		}
		return response, nil
	})
}

func TestRouter_Dispatch(t *testing.T) {
	var prompts []string
	r := NewDefaultRouter(fixed(acmeResponse, &prompts), Options{}, nil)

	for _, label := range []string{"invoice", "INVOICE", " Invoice ", "receipt", "Receipt"} {
		rec, err := r.Route(context.Background(), "ACME CORP ...", label)
		require.NoError(t, err, label)
		want, _ := constants.ParseDocumentType(label)
		assert.Equal(t, want, rec.DocumentType, label)
	}
	require.Len(t, prompts, 5)
	assert.True(t, strings.HasPrefix(prompts[0], "Extract invoice information"))
	assert.True(t, strings.HasPrefix(prompts[3], "Extract receipt information"))
}

func TestRouter_UnsupportedType(t *testing.T) {
	called := false
	r := NewDefaultRouter(llm.CompleterFunc(func(context.Context, string) (string, error) {
		called = true
		return acmeResponse, nil
	}), Options{}, nil)

	for _, label := range []string{"fax", "", "invoices", "bill"} {
		_, err := r.Route(context.Background(), "text", label)
		require.Error(t, err, label)
		assert.ErrorIs(t, err, common.ErrUnsupportedType, label)
	}
	assert.False(t, called, "no extractor may run for an unknown label")
}

func TestRouter_MissingExtractor(t *testing.T) {
	r := NewRouter(nil, NewInvoiceExtractor(fixed(acmeResponse, nil), Options{}, nil))

	_, err := r.Route(context.Background(), "text", "receipt")
	assert.ErrorIs(t, err, common.ErrUnsupportedType)
}

func TestExtract_AcmeInvoice(t *testing.T) {
	x := NewInvoiceExtractor(fixed(acmeResponse, nil), Options{}, nil)

	rec, err := x.Extract(context.Background(), "ACME CORP INVOICE ...")
	require.NoError(t, err)

	require.NotNil(t, rec.VendorName)
	assert.Equal(t, "Acme Corp", *rec.VendorName)
	assert.Equal(t, 1200.0, rec.Amount)
	assert.Equal(t, 1200.0, rec.TotalAmount)
	assert.Equal(t, "2024-01-05", rec.Date)
	assert.Equal(t, []entity.LineItem{{Name: "Widget", Quantity: 2, UnitPrice: 600, Total: 1200}}, rec.Products)
	assert.Equal(t, constants.Invoice, rec.DocumentType)
}

func TestExtract_ForcesOwnDocumentType(t *testing.T) {
	x := NewReceiptExtractor(fixed(`{"vendor_name":"Blue Cafe","document_type":"invoice","total_amount":"4.50"}`, nil), Options{}, nil)

	rec, err := x.Extract(context.Background(), "BLUE CAFE")
	require.NoError(t, err)
	assert.Equal(t, constants.Receipt, rec.DocumentType)
	assert.Empty(t, rec.Products)
}

func TestExtract_CoercesProducts(t *testing.T) {
	x := NewReceiptExtractor(fixed(`Sure! {"vendor_name":"Corner Shop","products":["Milk",{"name":"Bread","total":2.5}]}`, nil), Options{}, nil)

	rec, err := x.Extract(context.Background(), "CORNER SHOP")
	require.NoError(t, err)
	assert.Equal(t, []entity.LineItem{
		{Name: "Milk", Quantity: 1},
		{Name: "Bread", Quantity: 1, Total: 2.5},
	}, rec.Products)
}

func TestExtract_MalformedResponse(t *testing.T) {
	x := NewInvoiceExtractor(fixed("I'm sorry, I can't read this document.", nil), Options{}, nil)

	_, err := x.Extract(context.Background(), "smudged")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestExtract_WrongShapeIsMalformed(t *testing.T) {
	x := NewInvoiceExtractor(fixed(`{"vendor_name":"Acme Corp","products":"Widget x2"}`, nil), Options{}, nil)

	_, err := x.Extract(context.Background(), "ACME")
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestExtract_VendorName(t *testing.T) {
	x := NewInvoiceExtractor(fixed(`{"vendor_name":null,"total_amount":9}`, nil), Options{}, nil)
	rec, err := x.Extract(context.Background(), "UNSIGNED")
	require.NoError(t, err)
	assert.Nil(t, rec.VendorName)

	x = NewInvoiceExtractor(fixed(`{"vendor_name":1234,"total_amount":9}`, nil), Options{}, nil)
	_, err = x.Extract(context.Background(), "1234")
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestExtract_CompleterFailure(t *testing.T) {
	x := NewInvoiceExtractor(llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}), Options{}, nil)

	_, err := x.Extract(context.Background(), "ACME")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)

	_, err = NewInvoiceExtractor(nil, Options{}, nil).Extract(context.Background(), "ACME")
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestExtract_SingleAttempt(t *testing.T) {
	calls := 0
	x := NewInvoiceExtractor(llm.CompleterFunc(func(context.Context, string) (string, error) {
		calls++
		return "", common.ServiceUnavailableError("down", nil)
	}), Options{}, nil)

	_, err := x.Extract(context.Background(), "ACME")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
