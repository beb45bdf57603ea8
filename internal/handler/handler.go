package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"corebank/internal/config"
	"corebank/internal/infrastructure/lock"
	"corebank/internal/model"
	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	userService    *service.UserService
	authService    *service.AuthService
	accountService *service.AccountService
	ledgerService  *service.LedgerService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		userService:    service.NewUserService(db, cfg),
		authService:    service.NewAuthService(db, cfg),
		accountService: service.NewAccountService(db, cfg),
		ledgerService:  service.NewLedgerService(db, lock.NewAccountLocker(rdb), cfg),
	}
}

// respondError translates a service error into the transport envelope. The
// core is decoupled from status codes; this is the single place the mapping
// lives.
func respondError(c *gin.Context, err error) {
	var be *service.Error
	if !errors.As(err, &be) {
		response.ServerError(c, "internal error")
		return
	}

	switch service.KindOf(err) {
	case service.ErrKindInvalidValue:
		response.BusinessError(c, response.CodeInvalidValue, be.Detail)
	case service.ErrKindInvalidOperation:
		response.BusinessError(c, response.CodeInvalidOperation, be.Detail)
	case service.ErrKindInsufficientFunds:
		response.BusinessError(c, response.CodeInsufficientFunds, be.Detail)
	case service.ErrKindUnknownKind:
		response.BusinessError(c, response.CodeUnknownKind, be.Detail)
	case service.ErrKindConflict:
		response.Error(c, http.StatusConflict, response.CodeConflict, be.Detail)
	case service.ErrKindNotFound:
		response.NotFound(c, be.Detail)
	case service.ErrKindUnauthorized:
		response.Unauthorized(c, be.Detail)
	default:
		response.ServerError(c, be.Detail)
	}
}

// ============================================================
// Auth
// ============================================================

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user and returns a bearer token.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"access_token": token, "token_type": "bearer"})
}

// ============================================================
// Users
// ============================================================

type RegisterUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	CPF       string `json:"cpf" binding:"required"`
	Birthdate string `json:"birthdate" binding:"required"` // YYYY-MM-DD
}

// RegisterUser creates a new user.
// POST /api/v1/users
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		response.ParamError(c, "birthdate must be YYYY-MM-DD")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CPF:       req.CPF,
		Birthdate: birthdate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, user)
}

// ListUsers lists all users. Admin only.
// GET /api/v1/users?page=1&page_size=20
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"users": users, "total": total})
}

// GetCurrentUser returns the authenticated user.
// GET /api/v1/users/me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// GetUserByID returns one user. Admin only.
// GET /api/v1/users/:id
func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser applies a partial update. Users can only change their own
// record, and only the mutable fields.
// PATCH /api/v1/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}
	if id != currentUserID(c) {
		response.Forbidden(c, "you can only update your own user")
		return
	}

	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteUser removes a user. Admin only.
// DELETE /api/v1/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid user id")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}

// ============================================================
// Account types
// ============================================================

type CreateAccountTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAccountType registers an account type. Admin only.
// POST /api/v1/account-types
func (h *Handler) CreateAccountType(c *gin.Context) {
	var req CreateAccountTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	accountType, err := h.accountService.CreateAccountType(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, accountType)
}

// ListAccountTypes lists the available account types.
// GET /api/v1/account-types
func (h *Handler) ListAccountTypes(c *gin.Context) {
	accountTypes, err := h.accountService.ListAccountTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, accountTypes)
}

// ============================================================
// Accounts
// ============================================================

type CreateAccountRequest struct {
	AccountTypeID int64 `json:"account_type_id" binding:"required"`
}

// CreateAccount opens an account owned by the authenticated user.
// POST /api/v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), currentUserID(c), req.AccountTypeID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, account)
}

// GetAccount returns one account. Owner or admin.
// GET /api/v1/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	account, ok := h.fetchOwnedAccount(c)
	if !ok {
		return
	}
	response.Success(c, account)
}

// ListAccounts lists the authenticated user's accounts.
// GET /api/v1/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, accounts)
}

// DeleteAccount closes an account. Owner or admin; the balance must be zero.
// DELETE /api/v1/accounts/:id
func (h *Handler) DeleteAccount(c *gin.Context) {
	account, ok := h.fetchOwnedAccount(c)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), account.ID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}

// ============================================================
// Transactions
// ============================================================

type CreateTransactionRequest struct {
	FromAccountID   int64  `json:"from_account_id" binding:"required"`
	ToAccountID     int64  `json:"to_account_id"`
	ToAccountNumber string `json:"to_account_number"`
	Value           string `json:"value" binding:"required"`
	Kind            string `json:"kind" binding:"required"`
}

// CreateTransaction executes a ledger transaction. The authenticated user
// must own the source account. The destination may be addressed by id or by
// account number; when neither is given it defaults to the source account,
// which is the shape deposit and withdraw require anyway.
// POST /api/v1/transactions
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		response.ParamError(c, "value must be a decimal number")
		return
	}
	if value.Exponent() < -2 {
		response.ParamError(c, "value cannot have more than two decimal places")
		return
	}

	ctx := c.Request.Context()
	source, err := h.accountService.GetAccount(ctx, req.FromAccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	destination := source
	switch {
	case req.ToAccountNumber != "":
		destination, err = h.accountService.GetAccountByNumber(ctx, req.ToAccountNumber)
	case req.ToAccountID != 0:
		destination, err = h.accountService.GetAccount(ctx, req.ToAccountID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if source.UserID != currentUserID(c) {
		response.Forbidden(c, "you can only move money from your own account")
		return
	}

	created, err := h.ledgerService.ExecuteTransaction(ctx, source, destination, value, model.TransactionKind(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, gin.H{"created": created})
}

// ListTransactions lists the whole ledger. Admin only.
// GET /api/v1/transactions?page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"transactions": transactions, "total": total})
}

// GetTransaction returns one ledger row by transaction number. Admin only.
// GET /api/v1/transactions/:no
func (h *Handler) GetTransaction(c *gin.Context) {
	trans, err := h.ledgerService.GetTransaction(c.Request.Context(), c.Param("no"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, trans)
}

// ListAccountTransactions returns the statement of one account. Owner or
// admin.
// GET /api/v1/accounts/:id/transactions?page=1&page_size=20
func (h *Handler) ListAccountTransactions(c *gin.Context) {
	account, ok := h.fetchOwnedAccount(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	transactions, total, err := h.ledgerService.ListAccountTransactions(c.Request.Context(), account.ID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"transactions": transactions, "total": total})
}

// fetchOwnedAccount loads the :id account and enforces that the caller owns
// it or is an admin. On failure it writes the response and returns false.
func (h *Handler) fetchOwnedAccount(c *gin.Context) (*model.Account, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "invalid account id")
		return nil, false
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	if account.UserID != currentUserID(c) && !hasRole(c, model.RoleAdmin) {
		response.Forbidden(c, "not your account")
		return nil, false
	}
	return account, true
}

func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
