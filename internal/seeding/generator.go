package seeding

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/register/internal/domain/model"
)

var (
	firstNames  = []string{"Ama", "Kofi", "Akosua", "Yaw", "Efua", "Kwame", "Abena", "Kojo", "Adwoa", "Kwesi", "Esi", "Yaa"}
	lastNames   = []string{"Mensah", "Owusu", "Boateng", "Asante", "Osei", "Frimpong", "Appiah", "Darko", "Ofori", "Addo"}
	departments = []string{"ushering", "choir", "media", "protocol", "children", "evangelism"}
	soulTypes   = []string{"contact", "new believer", "member"}
)

// randomIndex returns a uniform index below n using crypto/rand.
func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func pick(xs []string) string { return xs[randomIndex(len(xs))] }

func chance(percent int) bool { return randomIndex(PercentageMultiplier) < percent }

// generateMembers builds n members attached to branchID. Emails carry a
// run tag so repeated runs against one base stay distinguishable.
func generateMembers(n int, branchID string) []model.Member {
	tag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	out := make([]model.Member, n)
	for i := range out {
		first, last := pick(firstNames), pick(lastNames)
		out[i] = model.Member{
			FirstName:           first,
			LastName:            last,
			Email:               fmt.Sprintf("%s.%s.%d.%s@example.org", strings.ToLower(first), strings.ToLower(last), i, tag),
			SoulType:            pick(soulTypes),
			Department:          pick(departments),
			IsBaptised:          chance(50),
			CompletedMembership: chance(40),
			BranchID:            branchID,
		}
	}
	return out
}

// pickReturners selects the members marked at the second event.
func pickReturners(members []model.Member, percent int) map[string]bool {
	out := make(map[string]bool, len(members))
	for _, m := range members {
		if chance(percent) {
			out[m.ID] = true
		}
	}
	return out
}
