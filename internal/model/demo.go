package model

import "github.com/google/uuid"

var demoNames = map[Role][2]string{
	RoleClient:   {"Dana Client", "client@demo.local"},
	RoleAE:       {"Alex Executive", "ae@demo.local"},
	RoleVerifier: {"Vera Verifier", "verifier@demo.local"},
	RoleAdmin:    {"Ada Admin", "admin@demo.local"},
}

// DemoPrincipal returns the fixed demo identity for a role. IDs are
// deterministic so impersonation and sample seeding agree across restarts.
func DemoPrincipal(role Role) (Principal, bool) {
	names, ok := demoNames[role]
	if !ok {
		return Principal{}, false
	}
	return Principal{
		UserID: uuid.NewSHA1(uuid.NameSpaceURL, []byte("procureflow/demo/"+string(role))),
		Name:   names[0],
		Email:  names[1],
		Role:   role,
	}, true
}
