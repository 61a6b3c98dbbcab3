package mailer

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
)

func TestLowStockBody(t *testing.T) {
	body := LowStockBody([]catalog.Item{
		{Name: "Onion", Category: catalog.CategoryVegetable, Stock: 3, Threshold: 20},
		{Name: "Thin Crust", Category: catalog.CategoryBase, Stock: 5, Threshold: 10},
	})

	assert.Contains(t, body, "Base:")
	assert.Contains(t, body, "Thin Crust: 5 remaining (threshold: 10)")
	assert.Contains(t, body, "Vegetable:")
	assert.Contains(t, body, "Onion: 3 remaining (threshold: 20)")
}

func TestSendLowStockAlert(t *testing.T) {
	m := New(Config{
		Host: "smtp.example.com", Port: 587,
		From: "alerts@example.com", AdminEmail: "admin@example.com",
	})

	var (
		gotAddr string
		gotTo   []string
		gotMsg  []byte
	)
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := m.SendLowStockAlert([]catalog.Item{
		{Name: "Onion", Category: catalog.CategoryVegetable, Stock: 3, Threshold: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"admin@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Low Stock Alert - 1 items need restocking")
	assert.Contains(t, string(gotMsg), "Onion")
}

func TestSendLowStockAlert_NothingToReport(t *testing.T) {
	m := New(Config{})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called for an empty report")
		return nil
	}
	require.NoError(t, m.SendLowStockAlert(nil))
}
