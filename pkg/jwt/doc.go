// Package jwt issues and verifies the API's RS256 access tokens.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "worship-api",
//	    Expiration:     15 * time.Minute,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: id, Email: email, Role: "leader"})
//	claims, err := svc.Validate(token)
//
// Validation failures are reported as ErrTokenExpired, ErrTokenNotYetValid,
// ErrInvalidSignature or ErrInvalidToken so callers never depend on the
// underlying library's error types.
package jwt
