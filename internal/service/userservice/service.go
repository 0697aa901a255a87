package userservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"varstock/internal/domain"
	apperror "varstock/internal/errors"
	"varstock/internal/pkg/token"
)

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Service implementa o registro e o login de usuários. É o colaborador de
// autenticação: a identidade autenticada alimenta os campos de auditoria
// (created_by) das operações de back office.
type Service struct {
	repo     UserRepository
	tokenSvc TokenService
}

// NewService cria uma nova instância do Serviço de Usuário.
func NewService(repo UserRepository, tokenSvc TokenService) *Service {
	return &Service{
		repo:     repo,
		tokenSvc: tokenSvc,
	}
}

// Register registra um novo usuário no sistema.
// Faz o hashing da senha e lida com validações básicas.
func (s *Service) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	if registration.Email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	now := time.Now().UTC()
	newUser := domain.User{
		ID:           uuid.New().String(),
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser, // Role padrão
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user, err := s.repo.Save(ctx, newUser)
	if err != nil {
		// O repositório já traduz e-mail duplicado para ConflictError.
		return domain.User{}, err
	}

	return user, nil
}

// Login autentica o usuário e retorna um JWT assinado.
func (s *Service) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Não revela se o e-mail existe: credencial inválida genérica.
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.tokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de acesso.", err)
	}

	return tokenString, nil
}
