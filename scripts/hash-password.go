// Prints a bcrypt hash for the given password, at the same cost the server
// uses, for seeding users.password_hash (e.g. the first superadmin account).
package main

import (
	"fmt"
	"os"

	"github.com/saludvia/portal-server-go/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	hash, err := util.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
