package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"clickguard/internal/models"
)

// MemoryStore is a thread-safe in-memory implementation of all four
// store interfaces. It backs unit tests and local development; the
// postgres store is the production backend.
type MemoryStore struct {
	mu         sync.RWMutex
	clicks     []models.ClickEvent
	blocks     map[string]*models.BlockedIP
	rules      []models.FraudDetectionRule
	exclusions []models.GoogleAdsExclusion
	nextID     uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blocks: make(map[string]*models.BlockedIP),
		nextID: 1,
	}
}

// AsStore exposes the memory store through the Store bundle. Rules and
// exclusions go through thin wrappers because their List signatures
// differ from the click ledger's.
func (m *MemoryStore) AsStore() Store {
	return Store{
		Clicks:     m,
		Blocks:     m,
		Rules:      memoryRuleStore{m},
		Exclusions: memoryExclusionStore{m},
	}
}

type memoryRuleStore struct{ *MemoryStore }

func (s memoryRuleStore) List() ([]models.FraudDetectionRule, error) {
	return s.listRules()
}

type memoryExclusionStore struct{ *MemoryStore }

func (s memoryExclusionStore) List(limit, offset int) ([]models.GoogleAdsExclusion, error) {
	return s.listExclusions(limit, offset)
}

func (m *MemoryStore) Create(event *models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event.ID = m.nextID
	m.nextID++
	event.CreatedAt = time.Now()
	m.clicks = append(m.clicks, *event)
	return nil
}

func (m *MemoryStore) ListByIPSince(ip string, since, before time.Time) ([]models.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.ClickEvent
	for _, e := range m.clicks {
		if e.IPAddress == ip && !e.Timestamp.Before(since) && e.Timestamp.Before(before) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *MemoryStore) List(fraudulentOnly bool, limit, offset int) ([]models.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []models.ClickEvent
	for _, e := range m.clicks {
		if fraudulentOnly && !e.IsFraudulent {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Timestamp.After(filtered[j].Timestamp) })
	return paginate(filtered, limit, offset), nil
}

func (m *MemoryStore) CountSince(since time.Time) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total, fraudulent int64
	for _, e := range m.clicks {
		if e.Timestamp.Before(since) {
			continue
		}
		total++
		if e.IsFraudulent {
			fraudulent++
		}
	}
	return total, fraudulent, nil
}

func (m *MemoryStore) TopReasons(since time.Time, limit int) ([]models.ReasonCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, e := range m.clicks {
		if e.Timestamp.Before(since) || e.FraudReason == "" {
			continue
		}
		for _, reason := range strings.Split(e.FraudReason, ",") {
			if reason = strings.TrimSpace(reason); reason != "" {
				counts[reason]++
			}
		}
	}

	out := make([]models.ReasonCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, models.ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CountByCountry(since time.Time) ([]models.CountryCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int64)
	for _, e := range m.clicks {
		if e.Timestamp.Before(since) || e.Country == "" {
			continue
		}
		counts[e.Country]++
	}

	out := make([]models.CountryCount, 0, len(counts))
	for country, count := range counts {
		out = append(out, models.CountryCount{Country: country, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}

func (m *MemoryStore) Upsert(block *models.BlockedIP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.blocks[block.IPAddress]; ok {
		existing.Reason = block.Reason
		existing.RiskScore = block.RiskScore
		existing.IsVPN = block.IsVPN
		existing.IsProxy = block.IsProxy
		existing.Country = block.Country
		existing.City = block.City
		existing.UserAgent = block.UserAgent
		existing.Notes = block.Notes
		existing.IsActive = true
		existing.LastClickAt = block.LastClickAt
		existing.UpdatedAt = time.Now()
		*block = *existing
		return nil
	}

	block.ID = m.nextID
	m.nextID++
	block.IsActive = true
	block.CreatedAt = time.Now()
	block.UpdatedAt = block.CreatedAt
	stored := *block
	m.blocks[block.IPAddress] = &stored
	return nil
}

func (m *MemoryStore) FindActive(ip string) (*models.BlockedIP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if block, ok := m.blocks[ip]; ok && block.IsActive {
		out := *block
		return &out, nil
	}
	return nil, nil
}

func (m *MemoryStore) Deactivate(ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	block, ok := m.blocks[ip]
	if !ok {
		return false, nil
	}
	block.IsActive = false
	block.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) ListActive(limit, offset int) ([]models.BlockedIP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.BlockedIP
	for _, block := range m.blocks {
		if block.IsActive {
			out = append(out, *block)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.After(out[j].BlockedAt) })
	return paginate(out, limit, offset), nil
}

func (m *MemoryStore) CountActive() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, block := range m.blocks {
		if block.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) SeedDefaults(rules []models.FraudDetectionRule) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := 0
	for _, rule := range rules {
		if m.ruleByNameLocked(rule.Name) != nil {
			continue
		}
		rule.ID = m.nextID
		m.nextID++
		rule.CreatedAt = time.Now()
		rule.UpdatedAt = rule.CreatedAt
		m.rules = append(m.rules, rule)
		created++
	}
	return created, nil
}

func (m *MemoryStore) ruleByNameLocked(name string) *models.FraudDetectionRule {
	for i := range m.rules {
		if m.rules[i].Name == name {
			return &m.rules[i]
		}
	}
	return nil
}

func (m *MemoryStore) listRules() ([]models.FraudDetectionRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.FraudDetectionRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *MemoryStore) Update(id uint, req models.RuleUpdateRequest) (*models.FraudDetectionRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rules {
		if m.rules[i].ID == id {
			applyRuleUpdate(&m.rules[i], req)
			m.rules[i].UpdatedAt = time.Now()
			out := m.rules[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateBatch(exclusions []models.GoogleAdsExclusion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ex := range exclusions {
		ex.ID = m.nextID
		m.nextID++
		ex.CreatedAt = time.Now()
		m.exclusions = append(m.exclusions, ex)
	}
	return nil
}

func (m *MemoryStore) listExclusions(limit, offset int) ([]models.GoogleAdsExclusion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.GoogleAdsExclusion, len(m.exclusions))
	copy(out, m.exclusions)
	sort.Slice(out, func(i, j int) bool { return out[i].ExcludedAt.After(out[j].ExcludedAt) })
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
