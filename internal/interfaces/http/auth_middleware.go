package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventorypro-ledger/internal/application/dto"
	"github.com/jhoicas/inventorypro-ledger/internal/domain"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/authz"
	"github.com/jhoicas/inventorypro-ledger/pkg/jwt"
)

// Locals keys para la identidad del token en Fiber.
const (
	LocalUserID   = "user_id"
	LocalBranchID = "branch_id"
	LocalRole     = "role"
)

// AuthMiddleware valida el Bearer Token JWT y deja UserID, BranchID y Role en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if id.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalBranchID, id.BranchID)
		c.Locals(LocalRole, id.Role)
		return c.Next()
	}
}

// RequireRole deja pasar solo a los roles indicados. Va después de AuthMiddleware.
func RequireRole(roles ...authz.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authz.HasRole(GetRole(c), roles...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "su rol no permite esta acción"})
		}
		return c.Next()
	}
}

// RequireCapability deja pasar si el rol tiene al menos una de las capacidades.
func RequireCapability(caps ...authz.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		for _, cp := range caps {
			if authz.Can(role, cp) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "su rol no permite esta acción"})
	}
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetBranchID devuelve la sucursal del usuario; vacío para quien no está atado a una.
func GetBranchID(c *fiber.Ctx) string { return localString(c, LocalBranchID) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) authz.Role { return authz.Role(localString(c, LocalRole)) }

// scopeBranch resuelve la sucursal efectiva de la petición según el rol.
// Un usuario acotado a su sucursal que pide otra recibe domain.ErrForbidden.
func scopeBranch(c *fiber.Ctx, requested string) (string, error) {
	branchID, ok := authz.ScopeBranch(GetRole(c), GetBranchID(c), requested)
	if !ok {
		return "", domain.ErrForbidden
	}
	return branchID, nil
}

// checkBranch exige acceso a una sucursal concreta.
func checkBranch(c *fiber.Ctx, branchID string) error {
	if !authz.CanAccessBranch(GetRole(c), GetBranchID(c), branchID) {
		return domain.ErrForbidden
	}
	return nil
}
