package remote

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/consolidador-t25/tarifas-cli/internal/classify"
	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
)

// Session wraps a Client with the contract-tree navigation conventions:
// /<main folder>/CONTRATOS <year>/<number>-<provider>/TARIFAS/<annexes>.
type Session struct {
	client     *Client
	mainFolder string
}

// NewSession builds a navigator over an established client.
func NewSession(client *Client, mainFolder string) *Session {
	return &Session{client: client, mainFolder: mainFolder}
}

// Client exposes the underlying connection for directory listings.
func (s *Session) Client() *Client { return s.client }

// Annex is a downloadable candidate selected for a contract.
type Annex struct {
	Name         string
	RemotePath   string
	Origin       string
	OtrosiNumber int
	Size         int64
}

var folderSeparators = regexp.MustCompile(`[\s\-_]+`)

// findFolder matches a folder name loosely: direct containment, then
// containment with spaces/underscores/dashes stripped.
func findFolder(items []Item, pattern string) string {
	p := normalize.Text(pattern)
	flat := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(p)

	for _, it := range items {
		if !it.IsDir {
			continue
		}
		n := normalize.Text(it.Name)
		if strings.Contains(n, p) {
			return it.Name
		}
		nFlat := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(n)
		if strings.Contains(nFlat, flat) {
			return it.Name
		}
	}
	return ""
}

// contractNumberVariants generates the zero-padding variants a contract
// folder may carry.
func contractNumberVariants(number string) []string {
	num := normalize.DigitsOnly(number)
	variants := []string{num, zeroPad(num, 3), zeroPad(num, 4), zeroPad(num, 5), strings.TrimLeft(num, "0"), "0" + num}
	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if v == "" {
			v = "0"
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// providerSimilarityFloor is the minimum ratio for a provider-name fuzzy
// match; below it a folder is more likely a different provider entirely.
const providerSimilarityFloor = 0.85

// findContractFolder locates the folder for a contract number, trying exact
// first-token matches, then prefix matches, then the provider name (exact
// containment, then closest similarity).
func findContractFolder(items []Item, number, provider string) string {
	variants := contractNumberVariants(number)

	for _, v := range variants {
		for _, it := range items {
			if !it.IsDir {
				continue
			}
			parts := folderSeparators.Split(it.Name, -1)
			if len(parts) > 0 && parts[0] == v {
				return it.Name
			}
		}
	}

	for _, v := range variants {
		for _, it := range items {
			if !it.IsDir {
				continue
			}
			if strings.HasPrefix(it.Name, v+"-") || strings.HasPrefix(it.Name, v+"_") || strings.HasPrefix(it.Name, v+" ") {
				return it.Name
			}
		}
	}

	if provider != "" {
		p := normalize.Text(provider)
		for _, it := range items {
			if it.IsDir && strings.Contains(normalize.Text(it.Name), p) {
				return it.Name
			}
		}

		// Last resort: closest folder name by similarity ratio, with the
		// leading contract-number token stripped off first.
		best, bestScore := "", providerSimilarityFloor
		for _, it := range items {
			if !it.IsDir {
				continue
			}
			name := it.Name
			if parts := folderSeparators.Split(name, 2); len(parts) == 2 {
				name = parts[1]
			}
			if score := normalize.Similarity(normalize.Text(name), p); score > bestScore {
				best, bestScore = it.Name, score
			}
		}
		if best != "" {
			return best
		}
	}

	return ""
}

// NavigateToContract walks root → main folder → "CONTRATOS <year>" →
// contract folder and returns the full remote path.
func (s *Session) NavigateToContract(ctx context.Context, year, number, provider string) (string, error) {
	if err := s.client.ChangeDir(ctx, "/"); err != nil {
		return "", err
	}
	items, err := s.client.List(ctx, "/")
	if err != nil {
		return "", err
	}

	main := findFolder(items, s.mainFolder)
	if main == "" {
		return "", eris.Errorf("remote: carpeta principal %q no encontrada", s.mainFolder)
	}
	if err := s.client.ChangeDir(ctx, main); err != nil {
		return "", err
	}

	items, err = s.client.List(ctx, ".")
	if err != nil {
		return "", err
	}
	yearFolder := findFolder(items, "CONTRATOS "+year)
	if yearFolder == "" {
		return "", eris.Errorf("remote: carpeta del año %s no encontrada", year)
	}
	if err := s.client.ChangeDir(ctx, yearFolder); err != nil {
		return "", err
	}

	items, err = s.client.List(ctx, ".")
	if err != nil {
		return "", err
	}
	contractFolder := findContractFolder(items, number, provider)
	if contractFolder == "" {
		return "", eris.Errorf("remote: contrato %s no encontrado", number)
	}
	if err := s.client.ChangeDir(ctx, contractFolder); err != nil {
		return "", err
	}

	return "/" + main + "/" + yearFolder + "/" + contractFolder, nil
}

// SelectAnnex lists the TARIFAS folder of the current contract and picks
// the winning annex: the highest-numbered otrosí, else the initial annex.
func (s *Session) SelectAnnex(ctx context.Context) (*Annex, error) {
	items, err := s.client.List(ctx, ".")
	if err != nil {
		return nil, err
	}

	tarifasFolder := ""
	for _, it := range items {
		if it.IsDir && strings.Contains(strings.ToLower(it.Name), "tarifa") {
			tarifasFolder = it.Name
			break
		}
	}
	if tarifasFolder == "" {
		return nil, eris.New("remote: carpeta TARIFAS no encontrada")
	}
	if err := s.client.ChangeDir(ctx, tarifasFolder); err != nil {
		return nil, err
	}

	items, err = s.client.List(ctx, ".")
	if err != nil {
		return nil, err
	}

	var initials, addenda []Annex
	for _, it := range items {
		if it.IsDir || !classify.IsSpreadsheetName(it.Name) {
			continue
		}
		cls := classify.Filename(it.Name)
		if !cls.Valid {
			zap.L().Debug("remote: candidate rejected",
				zap.String("file", it.Name), zap.String("reason", cls.Reason))
			continue
		}
		a := Annex{Name: it.Name, RemotePath: it.Name, Origin: cls.OriginLabel(), Size: it.Size}
		if cls.Kind == classify.KindOtrosi {
			a.OtrosiNumber = cls.OtrosiNumber
			addenda = append(addenda, a)
		} else {
			initials = append(initials, a)
		}
	}

	if len(addenda) > 0 {
		sort.Slice(addenda, func(i, j int) bool { return addenda[i].OtrosiNumber > addenda[j].OtrosiNumber })
		return &addenda[0], nil
	}
	if len(initials) > 0 {
		return &initials[0], nil
	}

	return nil, eris.New("remote: no se encontró archivo ANEXO 1 válido")
}

// DownloadAnnex retrieves the selected annex into destDir and returns the
// local path.
func (s *Session) DownloadAnnex(ctx context.Context, annex *Annex, destDir string) (string, error) {
	local := filepath.Join(destDir, annex.Name)
	if _, err := s.client.DownloadTo(ctx, annex.RemotePath, local); err != nil {
		return "", err
	}
	return local, nil
}
