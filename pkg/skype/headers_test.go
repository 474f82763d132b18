package skype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderStore_SnapshotStripsRequestScopedHeaders(t *testing.T) {
	h := NewHeaderStore()
	assert.False(t, h.Ready())

	h.Update(Credentials{
		Headers: map[string]string{
			"RegistrationToken": "reg",
			"ContextId":         "tcid=1",
			"content-length":    "42",
		},
		SkypeToken: "tok",
	})

	assert.True(t, h.Ready())
	assert.Equal(t, "tok", h.Token())
	assert.Equal(t, map[string]string{"RegistrationToken": "reg"}, h.Snapshot())
}

func TestHeaderStore_SnapshotIsACopy(t *testing.T) {
	h := NewHeaderStore()
	h.Update(Credentials{Headers: map[string]string{"RegistrationToken": "reg"}})

	snap := h.Snapshot()
	snap["ContextId"] = "123"
	snap["RegistrationToken"] = "changed"

	assert.Equal(t, map[string]string{"RegistrationToken": "reg"}, h.Snapshot())
}

func TestHeaderStore_UpdateReplacesWholesale(t *testing.T) {
	h := NewHeaderStore()
	h.Update(Credentials{Headers: map[string]string{"A": "1", "B": "2"}, SkypeToken: "old"})

	src := map[string]string{"C": "3"}
	h.Update(Credentials{Headers: src, SkypeToken: "new"})
	src["D"] = "4"

	assert.Equal(t, map[string]string{"C": "3"}, h.Snapshot())
	assert.Equal(t, "new", h.Token())
}
