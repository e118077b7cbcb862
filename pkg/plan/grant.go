package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"pgdeclare/pkg/dbmodel"
	"pgdeclare/pkg/model"
)

func buildGrantSQL(schemaName, tableName string, privileges []string, grantee string, withGrantOption bool) string {
	stmt := fmt.Sprintf("GRANT %s ON %s TO %s", strings.Join(privileges, ", "), qualify(schemaName, tableName), pq.QuoteIdentifier(grantee))
	if withGrantOption {
		stmt += " WITH GRANT OPTION"
	}
	return stmt + ";"
}

func buildRevokeSQL(schemaName, tableName string, privileges []string, grantee string) string {
	return fmt.Sprintf("REVOKE %s ON %s FROM %s;", strings.Join(privileges, ", "), qualify(schemaName, tableName), pq.QuoteIdentifier(grantee))
}

func buildRevokeAllSQL(schemaName, tableName, grantee string) string {
	return fmt.Sprintf("REVOKE ALL ON %s FROM %s;", qualify(schemaName, tableName), pq.QuoteIdentifier(grantee))
}

// planGrants implements spec.md's privilege reconciliation: grant whatever
// the desired set is missing, revoke whatever the live set has that the
// desired set doesn't (gated by withRevoke), and fully revoke grantees
// that the YAML document no longer mentions at all (also gated).
func planGrants(schemaName, tableName string, table *model.Table, live *dbmodel.PgTable, opts Options, logger Logger) ([]string, error) {
	var stmts []string

	desiredGrantees := make(map[string]bool)

	for _, g := range table.Grants.Values() {
		desiredGrantees[g.Grantee] = true
		if g.By != "" {
			logger.Info("grant attributed to role", "table", objectName(schemaName, tableName), "grantee", g.Grantee, "by", g.By)
		}
		desired := g.Privileges()
		liveGrant, exists := live.Grants.Get(g.Grantee)

		if !exists {
			if len(desired) == 0 {
				continue
			}
			sort.Strings(desired)
			stmts = append(stmts, buildGrantSQL(schemaName, tableName, desired, g.Grantee, g.WithGrantOption))
			live.SetGrant(&dbmodel.PgGrant{Grantee: g.Grantee, Privileges: toPrivSet(desired), WithGrantOption: g.WithGrantOption})
			continue
		}

		var toGrant []string
		for _, p := range desired {
			if !liveGrant.Privileges[p] {
				toGrant = append(toGrant, p)
			}
		}
		var toRevoke []string
		for p, held := range liveGrant.Privileges {
			if !held {
				continue
			}
			if !containsPriv(desired, p) {
				toRevoke = append(toRevoke, p)
			}
		}

		if len(toGrant) > 0 {
			sort.Strings(toGrant)
			stmts = append(stmts, buildGrantSQL(schemaName, tableName, toGrant, g.Grantee, g.WithGrantOption))
		}

		if len(toRevoke) > 0 {
			object := objectName(schemaName, tableName, g.Grantee)
			switch decide(opts.WithRevoke, opts) {
			case decisionEmit:
				sort.Strings(toRevoke)
				stmts = append(stmts, buildRevokeSQL(schemaName, tableName, toRevoke, g.Grantee))
			case decisionSkip:
				logger.LogSkipped(object, "privileges no longer declared, withRevoke is false")
				toRevoke = nil
			case decisionAbort:
				return nil, UngatedDestructiveChangeError{Object: object, Reason: "privileges revoked", SQL: buildRevokeSQL(schemaName, tableName, toRevoke, g.Grantee)}
			}
		}

		live.SetGrant(mergeGrant(liveGrant, toGrant, toRevoke, g.WithGrantOption))
	}

	for _, liveGrant := range live.Grants.Values() {
		if desiredGrantees[liveGrant.Grantee] {
			continue
		}
		object := objectName(schemaName, tableName, liveGrant.Grantee)
		switch decide(opts.WithRevoke, opts) {
		case decisionEmit:
			stmts = append(stmts, buildRevokeAllSQL(schemaName, tableName, liveGrant.Grantee))
			live.SetGrant(&dbmodel.PgGrant{Grantee: liveGrant.Grantee, Privileges: map[string]bool{}})
		case decisionSkip:
			logger.LogSkipped(object, "grantee no longer declared, withRevoke is false")
		case decisionAbort:
			return nil, UngatedDestructiveChangeError{Object: object, Reason: "grantee no longer declared", SQL: buildRevokeAllSQL(schemaName, tableName, liveGrant.Grantee)}
		}
	}

	return stmts, nil
}

func containsPriv(privs []string, p string) bool {
	for _, x := range privs {
		if x == p {
			return true
		}
	}
	return false
}

func toPrivSet(privs []string) map[string]bool {
	out := make(map[string]bool, len(privs))
	for _, p := range privs {
		out[p] = true
	}
	return out
}

func mergeGrant(live *dbmodel.PgGrant, granted, revoked []string, withGrantOption bool) *dbmodel.PgGrant {
	privs := make(map[string]bool, len(live.Privileges))
	for p, v := range live.Privileges {
		privs[p] = v
	}
	for _, p := range granted {
		privs[p] = true
	}
	for _, p := range revoked {
		delete(privs, p)
	}
	return &dbmodel.PgGrant{Grantee: live.Grantee, Privileges: privs, WithGrantOption: withGrantOption}
}
