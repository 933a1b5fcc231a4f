package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/marcovillca/tanda-agent/internal/domain"
)

func TestRoleForAuthor(t *testing.T) {
	var user genai.Role = roleForAuthor(domain.AuthorUser)
	require.Equal(t, genai.Role(genai.RoleUser), user)

	require.Equal(t, genai.Role(genai.RoleModel), roleForAuthor(domain.AuthorOrchestrator))
	require.Equal(t, genai.Role(genai.RoleModel), roleForAuthor("group_handler"))
}
