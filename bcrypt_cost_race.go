//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// the race detector slows bcrypt enough that the concurrent login and
// bootstrap tests would hit their deadlines at cost 12
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
