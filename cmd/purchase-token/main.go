// Command purchase-token signs a development bearer token accepted by the
// purchase service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eaglebank/purchase-service/internal/middleware"
	"github.com/eaglebank/purchase-service/internal/purchase"
	"github.com/eaglebank/purchase-service/internal/security"
)

func main() {
	defaults := []string{
		purchase.GrantCreate.String(),
		purchase.GrantRead.String(),
		purchase.GrantUpdate.String(),
		purchase.GrantDelete.String(),
	}
	account := flag.Int64("account", 1, "account id placed in the token")
	permissions := flag.String("permissions", strings.Join(defaults, ","), "comma separated SECURABLE:PERMISSION grants")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	var grants []security.Grant
	for _, raw := range strings.Split(*permissions, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		g, err := security.ParseGrant(raw)
		if err != nil {
			logrus.WithError(err).Fatal("parse permissions")
		}
		grants = append(grants, g)
	}

	token, err := middleware.IssueToken([]byte(secret), os.Getenv("JWT_ISSUER"), *account, grants, *ttl, time.Now())
	if err != nil {
		logrus.WithError(err).Fatal("sign token")
	}
	fmt.Println(token)
}
