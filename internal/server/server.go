// Package server exposes the ledger engine over the REST surface the
// existing frontend consumes. Amounts cross this boundary as decimal
// numbers and are converted to cents immediately.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmehta6/splitledger/internal/ledger"
	"github.com/nmehta6/splitledger/internal/models"
	"github.com/nmehta6/splitledger/internal/money"
)

// Server wires the engine to HTTP routes.
type Server struct {
	engine  *ledger.Engine
	handler http.Handler
}

// New creates the server and builds its route table.
func New(engine *ledger.Engine) *Server {
	s := &Server{engine: engine}

	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	r.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	r.HandleFunc("/groups/members", s.handleGroupMembers).Methods(http.MethodGet)

	r.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	r.HandleFunc("/settle", s.handleSettle).Methods(http.MethodPost)

	r.HandleFunc("/balances/user", s.handleUserBalances).Methods(http.MethodGet)
	r.HandleFunc("/balances/groups", s.handleGroupBalances).Methods(http.MethodGet)
	r.HandleFunc("/balances/groups/suggest", s.handleSuggestSettlements).Methods(http.MethodGet)

	s.handler = loggingMiddleware(recoveryMiddleware(corsMiddleware(r)))
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Wire shapes. Field names are fixed by the frontend's types.

type userView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type groupView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type balanceView struct {
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
}

type splitInput struct {
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type expenseRequest struct {
	ExpenseID    string           `json:"expense_id"`
	GroupID      string           `json:"group_id"`
	PaidBy       string           `json:"paid_by"`
	TotalAmount  float64          `json:"total_amount"`
	SplitType    models.SplitType `json:"split_type"`
	Participants []string         `json:"participants"`
	Splits       []splitInput     `json:"splits"`
	Description  string           `json:"description"`
}

type settleRequest struct {
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
}

type settlementView struct {
	ID         string  `json:"id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	CreatedAt  int64   `json:"created_at"`
}

func balanceViews(rows []models.BalanceRow) []balanceView {
	views := make([]balanceView, len(rows))
	for i, row := range rows {
		views[i] = balanceView{
			FromUserID: row.FromUserID,
			ToUserID:   row.ToUserID,
			Amount:     money.FromCents(row.AmountCents),
		}
	}
	return views
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.Users(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = userView{ID: u.ID, Name: u.Name}
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}
	user, err := s.engine.CreateUser(r.Context(), req.Name)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, userView{ID: user.ID, Name: user.Name})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.engine.Groups(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	views := make([]groupView, len(groups))
	for i, g := range groups {
		views[i] = groupView{ID: g.ID, Name: g.Name}
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}
	if len(req.Members) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "at least one member is required")
		return
	}
	group, err := s.engine.CreateGroup(r.Context(), req.Name, req.Members)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, groupView{ID: group.ID, Name: group.Name})
}

func (s *Server) handleGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "group_id is required")
		return
	}
	members, err := s.engine.GroupMembers(r.Context(), groupID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	views := make([]userView, len(members))
	for i, u := range members {
		views[i] = userView{ID: u.ID, Name: u.Name}
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	input, err := expenseInputFromRequest(req)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if _, err := s.engine.CreateExpense(r.Context(), input); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "expense created"})
}

// expenseInputFromRequest converts boundary decimals to cents. EXACT split
// amounts convert to cents here; percentages pass through untouched.
func expenseInputFromRequest(req expenseRequest) (ledger.ExpenseInput, error) {
	totalCents, err := money.ToCents(req.TotalAmount)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}

	shares := make([]ledger.SplitShare, len(req.Splits))
	for i, split := range req.Splits {
		share := ledger.SplitShare{UserID: split.UserID, Percentage: split.Percentage}
		if req.SplitType == models.SplitExact {
			cents, err := money.ToCents(split.Amount)
			if err != nil {
				return ledger.ExpenseInput{}, err
			}
			share.AmountCents = cents
		}
		shares[i] = share
	}

	return ledger.ExpenseInput{
		ExpenseID:    req.ExpenseID,
		GroupID:      req.GroupID,
		PaidBy:       req.PaidBy,
		TotalCents:   totalCents,
		SplitType:    req.SplitType,
		Participants: req.Participants,
		Shares:       shares,
		Description:  req.Description,
	}, nil
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	amountCents, err := money.ToCents(req.Amount)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	settlement, err := s.engine.Settle(r.Context(), req.FromUserID, req.ToUserID, amountCents)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlementView{
		ID:         settlement.ID,
		FromUserID: settlement.FromUserID,
		ToUserID:   settlement.ToUserID,
		Amount:     money.FromCents(settlement.AmountCents),
		CreatedAt:  settlement.CreatedAt,
	})
}

func (s *Server) handleUserBalances(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "user_id is required")
		return
	}
	rows, err := s.engine.UserBalances(r.Context(), userID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceViews(rows))
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "group_id is required")
		return
	}
	rows, err := s.engine.GroupBalances(r.Context(), groupID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceViews(rows))
}

func (s *Server) handleSuggestSettlements(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "group_id is required")
		return
	}
	rows, err := s.engine.SuggestSettlements(r.Context(), groupID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balanceViews(rows))
}
