package usercontext

// Locals keys shared by middlewares and controllers
const (
	LocalsKey   = "USER_CONTEXT"
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)
