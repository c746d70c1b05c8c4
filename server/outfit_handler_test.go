package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratemyfit/cache"
	"ratemyfit/model"
	"ratemyfit/repository"
)

// stubOutfitRepo records vote increments in memory.
type stubOutfitRepo struct {
	outfits map[int64]*model.Outfit
}

func newStubOutfitRepo(outfits ...*model.Outfit) *stubOutfitRepo {
	s := &stubOutfitRepo{outfits: map[int64]*model.Outfit{}}
	for _, o := range outfits {
		s.outfits[o.ID] = o
	}
	return s
}

func (s *stubOutfitRepo) CreateOutfit(_ context.Context, outfit *model.Outfit) error {
	outfit.ID = int64(len(s.outfits) + 1)
	s.outfits[outfit.ID] = outfit
	return nil
}

func (s *stubOutfitRepo) ListByUser(_ context.Context, userID int64) ([]model.Outfit, error) {
	var out []model.Outfit
	for _, o := range s.outfits {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOutfitRepo) ListTrending(_ context.Context, _ int) ([]model.Outfit, error) {
	var out []model.Outfit
	for _, o := range s.outfits {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOutfitRepo) IncrementVote(_ context.Context, id int64, kind model.VoteKind) error {
	o, ok := s.outfits[id]
	if !ok {
		return repository.ErrOutfitNotFound
	}
	switch kind {
	case model.VoteFire:
		o.FireVotes++
	case model.VoteNope:
		o.NopeVotes++
	}
	return nil
}

func voteHandler(repo *stubOutfitRepo) *Handler {
	return &Handler{
		outfits:  repo,
		trending: cache.NewTrendingCache(nil),
	}
}

func postVote(h *Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/vote", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Vote(rec, req)
	return rec
}

func TestVoteIncrementsFire(t *testing.T) {
	repo := newStubOutfitRepo(&model.Outfit{ID: 1, UserID: 2, FireVotes: 5})
	h := voteHandler(repo)

	rec := postVote(h, url.Values{"outfitId": {"1"}, "voteType": {"fire"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/trending?msg="+url.QueryEscape("Vote recorded!"), rec.Header().Get("Location"))
	assert.Equal(t, int64(6), repo.outfits[1].FireVotes)
	assert.Equal(t, int64(0), repo.outfits[1].NopeVotes)
}

func TestVoteIncrementsNope(t *testing.T) {
	repo := newStubOutfitRepo(&model.Outfit{ID: 1})
	h := voteHandler(repo)

	postVote(h, url.Values{"outfitId": {"1"}, "voteType": {"nope"}})

	assert.Equal(t, int64(1), repo.outfits[1].NopeVotes)
}

func TestVoteRejectsUnknownKind(t *testing.T) {
	repo := newStubOutfitRepo(&model.Outfit{ID: 1})
	h := voteHandler(repo)

	rec := postVote(h, url.Values{"outfitId": {"1"}, "voteType": {"meh"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")
	assert.Equal(t, int64(0), repo.outfits[1].FireVotes)
	assert.Equal(t, int64(0), repo.outfits[1].NopeVotes)
}

func TestVoteMissingOutfit(t *testing.T) {
	h := voteHandler(newStubOutfitRepo())

	rec := postVote(h, url.Values{"outfitId": {"404"}, "voteType": {"fire"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")
}

func TestVoteBadID(t *testing.T) {
	h := voteHandler(newStubOutfitRepo())

	rec := postVote(h, url.Values{"outfitId": {"abc"}, "voteType": {"fire"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")
}

func TestTrendingRendersForAnonymousVisitors(t *testing.T) {
	views, err := NewRenderer("../web/views", false)
	require.NoError(t, err)
	h := &Handler{
		outfits:  newStubOutfitRepo(&model.Outfit{ID: 1, Username: "alice", ImageURL: "/uploads/a.png", FireVotes: 3}),
		trending: cache.NewTrendingCache(nil),
		views:    views,
	}

	req := httptest.NewRequest(http.MethodGet, "/trending", nil)
	rec := httptest.NewRecorder()
	h.Trending(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "@alice")
	assert.Contains(t, body, "Log in to vote", "anonymous visitors see counts, not vote buttons")
	assert.NotContains(t, body, `action="/vote"`)
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := &Handler{}
	called := false
	protected := h.requireAuth(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	protected(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuthForcesProfileCompletion(t *testing.T) {
	h := &Handler{}
	called := false
	protected := h.requireAuth(func(w http.ResponseWriter, r *http.Request) { called = true })

	user := &model.User{ID: 1, Username: "alice1234", IsNewUser: true}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(withIdentity(req.Context(), user, "sid"))
	rec := httptest.NewRecorder()
	protected(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/complete-profile", rec.Header().Get("Location"))
}

func TestRequireAuthAllowsCompletedUser(t *testing.T) {
	h := &Handler{}
	called := false
	protected := h.requireAuth(func(w http.ResponseWriter, r *http.Request) { called = true })

	user := &model.User{ID: 1, Username: "alice"}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(withIdentity(req.Context(), user, "sid"))
	rec := httptest.NewRecorder()
	protected(rec, req)

	require.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
