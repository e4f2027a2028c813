// Command hashpw produces an argon2id encoded hash for the admin
// password, suitable for the ADMIN_PASSWORD_HASH environment variable.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aarongarrett/quorum/internal/services"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		log.Fatal("Password must not be empty")
	}

	encoded, err := services.HashSecret(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(encoded)
}
