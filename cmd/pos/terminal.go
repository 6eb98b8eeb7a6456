package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kdelights/internal/domain/cart"
	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/pos"
)

const banner = `
 _  __     ____       _ _       _     _
| |/ /    |  _ \  ___| (_) __ _| |__ | |_ ___
| ' /_____| | | |/ _ \ | |/ _' | '_ \| __/ __|
| . \_____| |_| |  __/ | | (_| | | | | |_\__ \
|_|\_\    |____/ \___|_|_|\__, |_| |_|\__|___/
                          |___/        restaurant
`

const help = `Perintah:
  menu [food|drink]   tampilkan menu
  add <nama> [jumlah] tambah pesanan
  rm <nomor>          hapus baris pesanan
  clear               kosongkan pesanan
  cart                tampilkan pesanan
  pay                 bayar
  quit                keluar`

// terminal is the line-oriented front end. It only talks to the register.
type terminal struct {
	reg      *pos.Register
	renderer *receipt.Renderer
	in       *bufio.Scanner
	out      io.Writer

	receiptPath string
}

func newTerminal(reg *pos.Register, renderer *receipt.Renderer, in io.Reader, out io.Writer) *terminal {
	return &terminal{
		reg:      reg,
		renderer: renderer,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

func (t *terminal) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) println(s string) {
	_, _ = fmt.Fprintln(t.out, s)
}

// prompt prints label and reads one trimmed line. ok is false at end of input.
func (t *terminal) prompt(label string) (line string, ok bool) {
	t.printf("%s", label)
	if !t.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(t.in.Text()), true
}

// Run reads commands until quit, end of input or ctx is done.
func (t *terminal) Run(ctx context.Context) error {
	t.println(banner)
	t.showMenu("")
	t.println(help)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, ok := t.prompt("\n> ")
		if !ok {
			break
		}
		cmd, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		switch strings.ToLower(cmd) {
		case "":
		case "menu":
			t.showMenu(args)
		case "add":
			t.add(args)
		case "rm", "remove":
			t.remove(args)
		case "clear":
			t.reg.ClearCart()
			t.println("Pesanan dikosongkan.")
		case "cart":
			t.showCart()
		case "pay":
			if err := t.pay(ctx); err != nil {
				return err
			}
		case "quit", "exit":
			t.println("Terima kasih telah memesan di K-Delights!")
			return nil
		case "help":
			t.println(help)
		default:
			t.printf("Perintah tidak dikenal: %s\n", cmd)
		}
	}
	t.println("Terima kasih sudah mampir. Sampai jumpa!")
	return nil
}

func (t *terminal) showMenu(arg string) {
	var only menu.Category
	if arg != "" {
		c, ok := menu.ParseCategory(arg)
		if !ok {
			t.printf("Kategori tidak valid: %s\n", arg)
			return
		}
		only = c
	}
	for _, c := range []menu.Category{menu.Food, menu.Drink} {
		if only != "" && c != only {
			continue
		}
		if c == menu.Food {
			t.println("\nMenu Makanan:")
		} else {
			t.println("\nMenu Minuman:")
		}
		for i, it := range t.reg.ListMenu(c) {
			t.printf("%d) %s - %s\n", i+1, it.Name, t.renderer.Money(it.UnitPrice))
		}
	}
}

// parseAdd splits "Omija Tea 2" into name and quantity. A missing or
// unparseable quantity is 1, and anything below 1 is raised to 1.
func parseAdd(args string) (name string, qty int) {
	fields := strings.Fields(args)
	qty = 1
	if n := len(fields); n > 1 {
		if q, err := strconv.Atoi(fields[n-1]); err == nil {
			fields = fields[:n-1]
			qty = max(q, 1)
		}
	}
	return strings.Join(fields, " "), qty
}

func (t *terminal) add(args string) {
	name, qty := parseAdd(args)
	if name == "" {
		t.println("Gunakan: add <nama> [jumlah]")
		return
	}
	item, err := t.reg.AddToCart(name, qty)
	switch {
	case errors.Is(err, menu.ErrNotFound):
		t.printf("Menu tidak ditemukan: %s\n", name)
	case err != nil:
		t.printf("Gagal menambah: %v\n", err)
	default:
		t.printf("Ditambahkan: %s x%d\n", item.Name, qty)
	}
}

func (t *terminal) remove(args string) {
	n, err := strconv.Atoi(args)
	if err != nil {
		t.println("Gunakan: rm <nomor>")
		return
	}
	if err := t.reg.RemoveFromCart(n - 1); errors.Is(err, cart.ErrLineNotFound) {
		t.println("Nomor tidak valid.")
		return
	}
	t.showCart()
}

func (t *terminal) showCart() {
	lines := t.reg.Lines()
	if len(lines) == 0 {
		t.println("Pesanan kosong.")
		return
	}
	t.println("Pesanan:")
	for i, l := range lines {
		t.printf("%d) %s x%d -> %s\n", i+1, l.Item.Name, l.Quantity, t.renderer.Money(l.Total()))
	}
}

// pay walks one checkout. Running out of input cancels it.
func (t *terminal) pay(ctx context.Context) error {
	flow, err := t.reg.Checkout()
	if errors.Is(err, checkout.ErrEmptyCart) {
		t.println("Tidak ada pesanan.")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if !flow.State().Terminal() {
			_ = flow.Cancel()
		}
	}()

	code, ok := t.prompt("Kode kupon (kosongkan jika tidak ada): ")
	if !ok {
		return nil
	}
	quote, err := flow.EnterCoupon(code)
	if err != nil {
		return err
	}
	if quote.CouponErr != nil {
		t.println("Kupon tidak valid, lanjut tanpa kupon.")
	}
	t.println("")
	t.printf("%s", t.renderer.Summary(quote.Breakdown))

	for {
		done, err := t.selectAndPay(ctx, flow)
		if err != nil || done {
			return err
		}
	}
}

// selectAndPay runs one wallet selection and its credential attempts. done
// reports that the flow reached a terminal state.
func (t *terminal) selectAndPay(ctx context.Context, flow *pos.Flow) (done bool, _ error) {
	wallets := t.reg.ListWallets()
	t.println("\nPilih metode pembayaran:")
	for _, w := range wallets {
		t.printf("%d) %s (Saldo: %s)\n", w.Index+1, w.Name, t.renderer.Money(w.Balance))
	}
	sel, ok := t.prompt(fmt.Sprintf("Pilih (1-%d) atau 'b' untuk batal: ", len(wallets)))
	if !ok || strings.EqualFold(sel, "b") {
		t.println("Pembayaran dibatalkan.")
		return true, flow.Cancel()
	}
	n, err := strconv.Atoi(sel)
	if err != nil || flow.SelectWallet(n-1) != nil {
		t.println("Pilihan tidak valid.")
		return false, nil
	}
	name := wallets[n-1].Name

	for {
		secret, ok := t.prompt("Masukkan kata kunci untuk " + name + " (atau 'g' ganti metode): ")
		if !ok {
			return true, flow.Cancel()
		}
		if strings.EqualFold(secret, "g") {
			t.println("Ganti metode.")
			return false, flow.ChangeWallet()
		}

		outcome, err := flow.SubmitCredential(ctx, secret)
		switch outcome {
		case checkout.Paid:
			t.paid(flow.Result())
			return true, nil
		case checkout.WrongCredential:
			opt, _ := t.prompt("Verifikasi gagal. Pilih: 1) coba lagi 2) ganti 3) batal: ")
			switch opt {
			case "1":
				continue
			case "2":
				return false, flow.ChangeWallet()
			default:
				t.println("Pembayaran dibatalkan.")
				return true, flow.Cancel()
			}
		case checkout.InsufficientFunds:
			opt, _ := t.prompt("Saldo tidak cukup. Pilih: 1) metode lain 2) batal: ")
			if opt == "1" {
				return false, nil
			}
			t.println("Pembayaran dibatalkan.")
			return true, flow.Cancel()
		default:
			return true, err
		}
	}
}

func (t *terminal) paid(res *checkout.Result) {
	t.println("")
	t.printf("%s", res.Receipt)
	for _, w := range res.Warnings {
		t.printf("Peringatan: %v\n", w)
	}
	if t.receiptPath != "" {
		t.printf("\nPembayaran sukses! Struk tersimpan di %s\n", t.receiptPath)
	} else {
		t.println("\nPembayaran sukses!")
	}
	t.printf("Transaksi ID: %s\n", res.TransactionID)
}
