// gpay-mock-upi/internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gpay-mock-upi/config"
	"gpay-mock-upi/internal/storage"
	"gpay-mock-upi/models"
)

// tokenTTL - срок жизни выданного токена.
const tokenTTL = 7 * 24 * time.Hour

// RegisterInput определяет структуру для входящих данных регистрации.
type RegisterInput struct {
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	Password       string          `json:"password"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// LoginInput - вход по userId и паролю.
type LoginInput struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// UpiAuthInput - вход по платёжному адресу и паролю.
type UpiAuthInput struct {
	UpiID    string `json:"upiId"`
	Password string `json:"password"`
}

// RegisterHandler создаёт нового пользователя. Платёжный адрес выводится
// из userId и снаружи не принимается.
func (h *UPIHandler) RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}
	if input.UserID == "" || input.Name == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId, name, and password are required"})
		return
	}
	if input.InitialBalance.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "initialBalance cannot be negative"})
		return
	}

	if _, err := h.Store.GetUserByUserID(c.Request.Context(), input.UserID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Не удалось захэшировать пароль", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	user := models.UPIUser{
		UserID:   input.UserID,
		Name:     input.Name,
		UpiID:    models.DeriveUpiID(input.UserID),
		Password: string(hashed),
		Balance:  input.InitialBalance,
	}
	if err := h.Store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
			return
		}
		slog.Error("Не удалось создать пользователя", "error", err, "userId", input.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	token, err := issueToken(user.UserID, user.UpiID)
	if err != nil {
		slog.Error("Не удалось выдать токен", "error", err, "userId", user.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"upiId":   user.UpiID,
		"name":    user.Name,
		"balance": user.Balance,
	})
}

// LoginHandler - вход по userId.
func (h *UPIHandler) LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}
	if input.UserID == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId and password are required"})
		return
	}

	user, err := h.Store.GetUserByUserID(c.Request.Context(), input.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := issueToken(user.UserID, user.UpiID)
	if err != nil {
		slog.Error("Не удалось выдать токен", "error", err, "userId", user.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"upiId":   user.UpiID,
		"name":    user.Name,
		"balance": user.Balance,
	})
}

// AuthWithUpiHandler - вход по платёжному адресу.
func (h *UPIHandler) AuthWithUpiHandler(c *gin.Context) {
	var input UpiAuthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}

	user, err := h.Store.GetUserByUpiID(c.Request.Context(), input.UpiID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid password"})
		return
	}

	token, err := issueToken(user.UserID, user.UpiID)
	if err != nil {
		slog.Error("Не удалось выдать токен", "error", err, "userId", user.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": user.UserID,
		"upiId":  user.UpiID,
		"name":   user.Name,
	})
}

// MeHandler возвращает профиль аутентифицированного пользователя.
func (h *UPIHandler) MeHandler(c *gin.Context) {
	userID := c.GetString("userId")

	user, err := h.Store.GetUserByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    user.Name,
		"upiId":   user.UpiID,
		"balance": user.Balance,
		"userId":  user.UserID,
	})
}

func issueToken(userID, upiID string) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"upiId":  upiID,
		"jti":    uuid.NewString(),
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JwtKey)
}
