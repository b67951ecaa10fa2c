package circle_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/service/circle"
)

func TestRemoveMembers(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodDelete)
		gt.Value(t, r.Header.Get("Authorization")).Equal("Token test-token")
		gt.Value(t, r.URL.Query().Get("community_id")).Equal("cm-1")

		email := r.URL.Query().Get("email")
		requested = append(requested, email)

		// already-removed contacts are indistinguishable from never-joined
		if email == "gone@example.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if email == "broken@example.com" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := circle.New("test-token", "cm-1",
		circle.WithBaseURL(srv.URL),
		circle.WithOwnerEmail("Owner@Example.com"))
	gt.NoError(t, err).Required()

	members := []model.Contact{
		{Email: "member@example.com"},
		{Email: "gone@example.com"},
		{Email: "member@example.com"}, // duplicate, removed once
	}
	partners := []model.Contact{
		{Email: "broken@example.com"},
	}

	result, err := client.RemoveMembers(context.Background(), members, partners)
	gt.NoError(t, err).Required()

	// member, gone (404 counts as removed), owner; broken fails
	gt.Number(t, result.Removed).Equal(3)
	gt.Array(t, result.Errors).Length(1)
	gt.Array(t, requested).Length(4)

	var sawOwner bool
	for _, email := range requested {
		if email == "owner@example.com" {
			sawOwner = true
		}
	}
	gt.Bool(t, sawOwner).True()
}
