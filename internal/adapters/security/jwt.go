package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// JWTVerifier validates RS256 service tokens presented by collaborators.
// Keys are held at adapter level so application code stays crypto-library agnostic.
type JWTVerifier struct {
	kid        string
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey // set only in ephemeral mode, for local token minting
}

// NewJWTVerifier builds a verifier from the configured public key PEM.
func NewJWTVerifier(kid, publicKeyPEM string) (*JWTVerifier, error) {
	if kid == "" {
		return nil, errors.New("jwt key id (kid) is required")
	}
	if publicKeyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &JWTVerifier{kid: kid, publicKey: pub}, nil
}

// NewEphemeralJWTVerifier creates an in-memory keypair for local/dev use.
// This exists to unblock runtime startup when static keys are intentionally absent.
func NewEphemeralJWTVerifier(kid string) (*JWTVerifier, error) {
	if kid == "" {
		kid = "ephemeral-key-1"
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{
		kid:        kid,
		publicKey:  &privateKey.PublicKey,
		privateKey: privateKey,
	}, nil
}

type serviceJWTClaims struct {
	ServiceID string `json:"service_id"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) ParseAndValidate(raw string) (ports.ServiceClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &serviceJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.ServiceClaims{}, err
	}
	claims, ok := parsed.Claims.(*serviceJWTClaims)
	if !ok || !parsed.Valid {
		return ports.ServiceClaims{}, errors.New("invalid token claims")
	}
	if claims.ServiceID == "" {
		return ports.ServiceClaims{}, errors.New("missing service_id claim")
	}

	kid, _ := parsed.Header["kid"].(string)
	out := ports.ServiceClaims{ServiceID: claims.ServiceID, KeyID: kid}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Sign mints a service token; available only in ephemeral mode where this
// process owns the private key. Used by local tooling and tests.
func (v *JWTVerifier) Sign(serviceID string, ttl time.Duration) (string, error) {
	if v.privateKey == nil {
		return "", errors.New("signing requires ephemeral mode")
	}
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, serviceJWTClaims{
		ServiceID: serviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	token.Header["kid"] = v.kid
	return token.SignedString(v.privateKey)
}

func parseRSAPublic(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("invalid public key PEM")
	}
	if block.Type == "RSA PUBLIC KEY" {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return pub, nil
}
