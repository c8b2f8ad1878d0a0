// Command token-gen mints an HS256 bearer token for exercising the booking
// endpoint in development.
//
//	AUTH_JWT_SECRET=dev-secret go run ./tools/token-gen -sub dr-lee -ttl 2h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/clinicbook/clinicbook/libs/auth"
)

func main() {
	sub := flag.String("sub", "dev-user", "token subject")
	clinic := flag.String("clinic", "", "clinic id claim")
	role := flag.String("role", "staff", "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      *sub,
		ClinicID: *clinic,
		Role:     *role,
		Iat:      now.Unix(),
		Exp:      now.Add(*ttl).Unix(),
	}, secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
