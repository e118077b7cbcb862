package plan

import "fmt"

// maxLockRetries bounds the retry loop inside the DO block; raising an
// exception beyond this count surfaces as a normal ExecutionError.
const maxLockRetries = 100

// wrapRetry wraps a single DDL statement in an anonymous DO block that
// sets a 1s lock_timeout and retries the statement up to maxLockRetries
// times on lock_not_available (pq error 55P03), per spec.md §4.4 "Retry
// wrapper". This is server-side only: the client issues one statement and
// waits, it does not loop (spec.md §9).
func wrapRetry(stmt string) string {
	return fmt.Sprintf(`DO $do$
DECLARE
    attempts int := 0;
BEGIN
    LOOP
        BEGIN
            SET LOCAL lock_timeout = '1000ms';
            %s
            EXIT;
        EXCEPTION WHEN lock_not_available THEN
            attempts := attempts + 1;
            IF attempts >= %d THEN
                RAISE EXCEPTION 'gave up acquiring lock after %% attempts', attempts;
            END IF;
        END;
    END LOOP;
END
$do$;`, stmt, maxLockRetries)
}
