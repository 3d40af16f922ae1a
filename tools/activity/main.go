// Command activity prints per-competition submission totals from ClickHouse.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	dsn := os.Getenv("CLICKHOUSE_URL")
	if dsn == "" {
		dsn = "clickhouse://default:@localhost:9000/thinkly"
	}
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	var total uint64
	if err := conn.QueryRow(ctx, "SELECT count() FROM thinkly.submission_events").Scan(&total); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total submissions: %d\n", total)

	rows, err := conn.Query(ctx, `
		SELECT competition_id, count(), countIf(correct), uniqExact(user_id)
		FROM thinkly.submission_events
		GROUP BY competition_id
		ORDER BY competition_id DESC
		LIMIT 20`)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	fmt.Printf("%-12s %-12s %-10s %s\n", "COMPETITION", "SUBMISSIONS", "CORRECT", "USERS")
	for rows.Next() {
		var comp, subs, correct, users uint64
		if err := rows.Scan(&comp, &subs, &correct, &users); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-12d %-12d %-10d %d\n", comp, subs, correct, users)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}
