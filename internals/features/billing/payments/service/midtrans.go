// file: internals/features/billing/payments/service/midtrans.go
package service

import (
	"errors"
	"fmt"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	model "kostku_backend/internals/features/billing/payments/model"
)

/* =========================================================
   Midtrans Client
========================================================= */

var (
	SnapClient    snap.Client
	midtransReady bool
)

// InitMidtrans harus dipanggil saat bootstrap app.
// useProduction=true untuk Production, false untuk Sandbox.
func InitMidtrans(serverKey string, useProduction bool) {
	if serverKey == "" {
		return
	}
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
	midtransReady = true
}

func MidtransReady() bool { return midtransReady }

/* =========================================================
   Generate Snap Token — checkout utk payment metode gateway
========================================================= */

// GenerateSnapToken meminta token + redirect URL Snap utk satu payment.
// OrderID = <bill_number>-<payment_id pendek> supaya unik per percobaan bayar.
func GenerateSnapToken(p *model.BillPayment, billNumber string) (string, string, error) {
	if p.BillPaymentAmountIDR <= 0 {
		return "", "", errors.New("invalid bill_payment_amount_idr")
	}
	if billNumber == "" {
		return "", "", errors.New("bill number is required (used as OrderID prefix)")
	}

	orderID := fmt.Sprintf("%s-%s", billNumber, p.BillPaymentID.String()[:8])
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: p.BillPaymentAmountIDR,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    p.BillPaymentBillID.String(),
				Name:  "Tagihan " + billNumber,
				Price: p.BillPaymentAmountIDR,
				Qty:   1,
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", "", err
	}
	return resp.Token, resp.RedirectURL, nil
}
