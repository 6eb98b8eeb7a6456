package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/domain/wallet"
	"github.com/xenking/kdelights/internal/pos"
)

type memCoupons struct{ n int }

func (m *memCoupons) Append(context.Context, coupon.Record) error {
	m.n++
	return nil
}

type memReceipts struct{}

func (memReceipts) WriteReceipt(context.Context, string) error { return nil }

func runScript(t *testing.T, script ...string) (string, *pos.Register, *memCoupons) {
	t.Helper()

	wallets, err := wallet.NewLedger(wallet.DefaultSeeds(), bcrypt.MinCost)
	require.NoError(t, err)

	rules := pricing.DefaultRules()
	renderer := receipt.NewRenderer(language.English, rules)
	store := &memCoupons{}
	svc, err := checkout.NewService(pricing.NewEngine(rules), wallets,
		coupon.NewLedger(store, nil, nil), memReceipts{}, renderer)
	require.NoError(t, err)

	reg := pos.NewRegister(menu.Default(), wallets, svc, nil)
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, newTerminal(reg, renderer, in, &out).Run(context.Background()))
	return out.String(), reg, store
}

func TestParseAdd(t *testing.T) {
	tests := []struct {
		args     string
		wantName string
		wantQty  int
	}{
		{args: "Bibimbap", wantName: "Bibimbap", wantQty: 1},
		{args: "Soju 2", wantName: "Soju", wantQty: 2},
		{args: "Omija Tea 3", wantName: "Omija Tea", wantQty: 3},
		{args: "Omija Tea", wantName: "Omija Tea", wantQty: 1},
		{args: "Kimchi 0", wantName: "Kimchi", wantQty: 1},
		{args: "Kimchi -4", wantName: "Kimchi", wantQty: 1},
		{args: "", wantName: "", wantQty: 1},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			name, qty := parseAdd(tt.args)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantQty, qty)
		})
	}
}

func TestTerminal_PayWithRetry(t *testing.T) {
	out, reg, store := runScript(t,
		"add bibimbap",
		"add soju 2",
		"add pizza",
		"pay",
		"",         // no coupon
		"9",        // invalid wallet
		"1",        // myaccount
		"wrong",    // bad secret
		"1",        // retry
		"myaccount",
		"quit",
	)

	assert.Contains(t, out, "Menu tidak ditemukan: pizza")
	assert.Contains(t, out, "Ringkasan Pesanan:")
	assert.Contains(t, out, "   (Promo: +1 Soju GRATIS!)")
	assert.Contains(t, out, "Pilihan tidak valid.")
	assert.Contains(t, out, "Verifikasi gagal.")
	assert.Contains(t, out, "TOTAL BAYAR     : Rp 130,000")
	assert.Contains(t, out, "Pembayaran sukses!")

	assert.Equal(t, int64(4_870_000), reg.ListWallets()[0].Balance)
	assert.Empty(t, reg.Lines())
	assert.Equal(t, 1, store.n)
}

func TestTerminal_InsufficientFundsThenOtherWallet(t *testing.T) {
	out, reg, _ := runScript(t,
		"add soju 200",
		"pay",
		"nope", // unknown coupon
		"1",
		"myaccount",
		"1", // other wallet
		"3",
		"mysecret",
	)

	assert.Contains(t, out, "Kupon tidak valid")
	assert.Contains(t, out, "Saldo tidak cukup.")
	assert.Contains(t, out, "Pembayaran sukses!")
	assert.Equal(t, int64(5_000_000), reg.ListWallets()[0].Balance)
	assert.Less(t, reg.ListWallets()[2].Balance, int64(100_000_000))
}

func TestTerminal_CancelKeepsCart(t *testing.T) {
	out, reg, store := runScript(t,
		"pay",
		"add kimchi",
		"pay",
		"",
		"2",
		"g", // change wallet
		"b", // cancel
		"cart",
	)

	assert.Contains(t, out, "Tidak ada pesanan.")
	assert.Contains(t, out, "Ganti metode.")
	assert.Contains(t, out, "Pembayaran dibatalkan.")
	assert.Contains(t, out, "1) Kimchi x1 -> Rp 12,000")
	assert.Len(t, reg.Lines(), 1)
	assert.Zero(t, store.n)
}

func TestTerminal_CartCommands(t *testing.T) {
	out, reg, _ := runScript(t,
		"menu drink",
		"add Omija Tea 2",
		"add tteokbokki x",
		"rm 5",
		"rm 1",
		"clear",
		"cart",
		"dance",
	)

	assert.Contains(t, out, "4) Omija Tea - Rp 20,000")
	assert.Contains(t, out, "Ditambahkan: Omija Tea x2")
	assert.Contains(t, out, "Menu tidak ditemukan: tteokbokki x")
	assert.Contains(t, out, "Nomor tidak valid.")
	assert.Contains(t, out, "Pesanan kosong.")
	assert.Contains(t, out, "Perintah tidak dikenal: dance")
	assert.Empty(t, reg.Lines())
}
