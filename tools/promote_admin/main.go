// Command promote_admin grants the admin role to an existing account. It is
// how the first administrator is bootstrapped.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <username>", os.Args[0])
	}
	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		log.Fatal("POSTGRES_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close(ctx)

	var id int64
	var email string
	err = conn.QueryRow(ctx,
		"UPDATE users SET is_admin = true WHERE username = $1 RETURNING id, email",
		os.Args[1]).Scan(&id, &email)
	if err == pgx.ErrNoRows {
		log.Fatalf("no user named %q", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("ID: %d\nEMAIL: %s\nADMIN: true\n", id, email)
}
