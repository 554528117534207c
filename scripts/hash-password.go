package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Prints an ADMIN_PASSWORD_HASH line for the environment file.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost+2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
}
