package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/preenhq/payments-service/internal/utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string

	StripeSecretKey     string
	StripeWebhookSecret string
	SendgridAPIKey      string

	// Shared secret the payout pipeline sends on outcome callbacks.
	DisbursementCallbackSecret string

	// Public half of the auth service's signing key; this service only
	// verifies tokens, it never issues them.
	RSAPublicKey *rsa.PublicKey

	LDFlag_SendgridFromEmail   string
	LDFlag_SendgridSandboxMode bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_SeedDbWithTestData  bool
}

const (
	OrganizationName    = "Preen"
	LDConnectionTimeout = 5 * time.Second

	defaultSendgridFromEmail = "no-reply@preenhq.com"
)

var AppName = "payments-service"

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          AppName,
		AppPort:          mustEnv("APP_PORT"),
		AppUrl:           mustEnv("APP_URL"),
		DBUrl:            mustEnv("DB_URL"),

		StripeSecretKey:     mustEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),
		SendgridAPIKey:      mustEnv("SENDGRID_API_KEY"),

		DisbursementCallbackSecret: mustEnv("DISBURSEMENT_CALLBACK_SECRET"),
	}

	pubB64 := mustEnv("RSA_PUBLIC_KEY_BASE64")
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}
	cfg.RSAPublicKey = pubKey

	loadFeatureFlags(cfg)

	return cfg
}

// loadFeatureFlags pulls runtime flags from LaunchDarkly. A missing SDK key
// is allowed in local development; defaults apply.
func loadFeatureFlags(cfg *Config) {
	cfg.LDFlag_SendgridFromEmail = defaultSendgridFromEmail
	cfg.LDFlag_SendgridSandboxMode = true

	ldSDKKey := os.Getenv("LD_SDK_KEY")
	if ldSDKKey == "" {
		utils.Logger.Warn("LD_SDK_KEY not set; using default feature flag values")
		return
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind("service", AppName)

	sgFromFlag, err := ldClient.StringVariation("sendgrid_from_email", ctx, defaultSendgridFromEmail)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	cfg.LDFlag_SendgridFromEmail = sgFromFlag

	sgSandboxFlag, err := ldClient.BoolVariation("sendgrid_sandbox_mode", ctx, true)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}
	cfg.LDFlag_SendgridSandboxMode = sgSandboxFlag

	corsHighSecurityFlag, err := ldClient.BoolVariation("cors_high_security", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving cors_high_security flag")
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurityFlag)
	cfg.LDFlag_CORSHighSecurity = corsHighSecurityFlag

	seedDbWithTestDataFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedDbWithTestDataFlag)
	cfg.LDFlag_SeedDbWithTestData = seedDbWithTestDataFlag
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}

func (c *Config) Close() {}
