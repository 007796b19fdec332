package local

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(t *testing.T, dir string) *CustomerBook {
	t.Helper()
	book, err := NewCustomerBook(NewSlots(dir))
	require.NoError(t, err)
	return book
}

func TestCustomerBook_AddUpdateDeletePersist(t *testing.T) {
	dir := t.TempDir()
	book := newBook(t, dir)
	assert.Equal(t, 0, book.Len())

	i, err := book.Add(domain.Customer{Name: " Asha ", Email: "asha@example.com", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	_, err = book.Add(domain.Customer{Name: "Ben", Email: "ben@example.com", Phone: "555-0202", GSTNumber: "29ABCDE1234F1Z5"})
	require.NoError(t, err)

	require.NoError(t, book.Update(0, domain.Customer{Name: "Asha K", Email: "asha@example.com", Phone: "555-0101"}))

	// a second book reads what the first wrote
	reloaded := newBook(t, dir)
	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Asha K", list[0].Name)
	assert.Equal(t, "29ABCDE1234F1Z5", list[1].GSTNumber)

	require.NoError(t, reloaded.Delete(0))
	assert.Equal(t, "Ben", reloaded.List()[0].Name)
	assert.Len(t, newBook(t, dir).List(), 1)
}

func TestCustomerBook_StoredAsJSONArray(t *testing.T) {
	dir := t.TempDir()
	book := newBook(t, dir)
	_, err := book.Add(domain.Customer{Name: "Asha", Email: "a@example.com", Phone: "1"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, SlotCustomers+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"gstNumber"`)
	assert.Equal(t, byte('['), data[0])
}

func TestCustomerBook_Validation(t *testing.T) {
	book := newBook(t, t.TempDir())

	tests := []struct {
		name  string
		c     domain.Customer
		field string
	}{
		{name: "name", c: domain.Customer{Email: "a@b.c", Phone: "1"}, field: "name"},
		{name: "email", c: domain.Customer{Name: "A", Phone: "1"}, field: "email"},
		{name: "phone", c: domain.Customer{Name: "A", Email: "a@b.c"}, field: "phone"},
		{name: "blank name", c: domain.Customer{Name: "  ", Email: "a@b.c", Phone: "1"}, field: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book.Add(tt.c)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, 0, book.Len())
}

func TestCustomerBook_IndexOutOfRange(t *testing.T) {
	book := newBook(t, t.TempDir())
	valid := domain.Customer{Name: "A", Email: "a@b.c", Phone: "1"}

	assert.True(t, errors.Is(book.Update(0, valid), ErrIndexOutOfRange))
	assert.True(t, errors.Is(book.Delete(-1), ErrIndexOutOfRange))

	_, err := book.Add(valid)
	require.NoError(t, err)
	assert.True(t, errors.Is(book.Delete(1), ErrIndexOutOfRange))
}

func TestCustomerBook_Search(t *testing.T) {
	book := newBook(t, t.TempDir())
	for _, c := range []domain.Customer{
		{Name: "Asha Kumar", Email: "asha@example.com", Phone: "98450 11111"},
		{Name: "Ben Ortiz", Email: "BEN@corp.io", Phone: "555-0202"},
		{Name: "Chen Li", Email: "chen@example.com", Phone: "555-0303"},
	} {
		_, err := book.Add(c)
		require.NoError(t, err)
	}

	hits := book.Search("example")
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Index)
	assert.Equal(t, 2, hits[1].Index)

	hits = book.Search("ben@")
	require.Len(t, hits, 1)
	assert.Equal(t, "Ben Ortiz", hits[0].Customer.Name)

	hits = book.Search("0303")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Index)

	assert.Len(t, book.Search(""), 3)
	assert.Empty(t, book.Search("zzz"))
}
