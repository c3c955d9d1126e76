package migration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/budget/internal/ledger"
	"github.com/tinoosan/budget/internal/schema"
)

var hundred = decimal.MustNew(100, 0)

// object is a legacy JSON record with loosely typed fields.
type object map[string]json.RawMessage

// pick returns the first present, non-null field among names.
func (o object) pick(names ...string) (json.RawMessage, bool) {
	for _, n := range names {
		if v, ok := o[n]; ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// catRef is an unresolved expense category reference.
type catRef struct {
	id   string
	name string
}

type pendingExpense struct {
	entry ledger.ExpenseEntry
	ref   catRef
}

// converter accumulates the decoded state of one run.
type converter struct {
	opts Options
	log  *slog.Logger
	rep  Report
	zero money.Amount
	loc  *time.Location
	now  time.Time

	// synthesized timestamps: base + n minutes
	base time.Time
	n    int

	cats     []ledger.Category
	byKey    map[string]int       // name key -> index in cats
	byLegacy map[string]uuid.UUID // legacy category id -> kept id
	dupes    map[string]uuid.UUID // legacy id of a dropped duplicate -> kept id
	fallback *uuid.UUID

	incomes  []ledger.IncomeEntry
	expenses []pendingExpense
	usedIDs  map[uuid.UUID]bool
}

// Convert decodes legacy raw values (keyed by legacy key) into a current
// schema state. It never fails.
func Convert(raw map[string][]byte, opts Options) (schema.State, Report) {
	now := opts.now()
	c := &converter{
		opts:     opts,
		log:      opts.logger(),
		loc:      now.Location(),
		now:      now,
		base:     ledger.PeriodOf(now).Start(now.Location()),
		byKey:    map[string]int{},
		byLegacy: map[string]uuid.UUID{},
		dupes:    map[string]uuid.UUID{},
		usedIDs:  map[uuid.UUID]bool{},
	}
	c.zero, _ = money.NewAmountFromDecimal(opts.Currency, decimal.MustNew(0, 0))

	// undated legacy records belong to the last month the legacy app processed
	last := c.lastMonth(raw[KeyLastMonth])
	if !last.IsZero() {
		c.base = last.Start(c.loc)
	}

	c.categories(raw[KeyCategories])
	c.budgets(raw[KeyBudgets])
	if len(c.cats) == 0 {
		c.seed()
	}

	c.transactions(raw[KeyTransactions])
	c.entryList(KeyIncomes, raw[KeyIncomes], false)
	c.entryList(KeyExpenses, raw[KeyExpenses], true)
	c.zipped(KeyIncomeNames, raw[KeyIncomeNames], raw[KeyIncomeAmounts], nil, false)
	c.zipped(KeyExpenseNames, raw[KeyExpenseNames], raw[KeyExpenseAmounts], raw[KeyExpenseCategories], true)

	expenses := c.resolveExpenses()
	if len(c.cats) == 0 {
		c.fallbackCategory()
	}

	st := schema.State{
		Incomes:      c.incomes,
		Expenses:     expenses,
		Categories:   c.cats,
		Goal:         c.goal(raw[KeySavingsGoal]),
		LastRollover: last,
	}
	return st, c.rep
}

func (c *converter) warn(key string, index int, reason string, args ...any) {
	c.rep.Coerced++
	attrs := append([]any{"key", key, "index", index, "reason", reason}, args...)
	c.log.Warn("legacy record coerced", attrs...)
}

func (c *converter) stamp() time.Time {
	t := c.base.Add(time.Duration(c.n) * time.Minute)
	c.n++
	return t
}

// newID keeps a legacy id when it is a unique UUID, otherwise allocates one.
func (c *converter) newID(legacy string) uuid.UUID {
	if id, err := uuid.Parse(legacy); err == nil && id != uuid.Nil && !c.usedIDs[id] {
		c.usedIDs[id] = true
		return id
	}
	for {
		id := c.opts.ids().NewID()
		if !c.usedIDs[id] {
			c.usedIDs[id] = true
			return id
		}
	}
}

// array decodes a legacy list. A missing key is an empty list; a value that
// is not a JSON array is coerced to an empty list.
func (c *converter) array(key string, b []byte) []json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		c.warn(key, -1, "not a list", "err", err)
		return nil
	}
	return items
}

// text returns raw as a string, accepting JSON strings and numbers.
func text(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// number parses raw as a decimal. Strings may carry currency symbols and
// thousands separators.
func number(raw json.RawMessage) (decimal.Decimal, bool) {
	s, ok := text(raw)
	if !ok {
		return decimal.Decimal{}, false
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', '$', '€', '£':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// amount decodes a non-negative money amount, coercing failures to zero.
func (c *converter) amount(key string, index int, raw json.RawMessage) money.Amount {
	d, ok := number(raw)
	if !ok {
		c.warn(key, index, "unparseable amount", "value", string(raw))
		return c.zero
	}
	if d.IsNeg() {
		c.warn(key, index, "negative amount", "value", d.String())
		return c.zero
	}
	a, err := money.NewAmountFromDecimal(c.opts.Currency, d.Round(c.opts.Currency.Scale()))
	if err != nil || !ledger.InRange(d) {
		c.warn(key, index, "amount out of range", "value", d.String())
		return c.zero
	}
	return a
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// when decodes a legacy timestamp: RFC 3339, plain dates, or epoch millis.
func (c *converter) when(key string, index int, raw json.RawMessage, ok bool) time.Time {
	if !ok {
		return c.stamp()
	}
	s, _ := text(raw)
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).In(c.loc)
	}
	c.warn(key, index, "unparseable timestamp", "value", s)
	return c.stamp()
}

func (c *converter) addIncome(legacyID, desc string, amt money.Amount, at time.Time) {
	c.incomes = append(c.incomes, ledger.IncomeEntry{ID: c.newID(legacyID), Description: strings.TrimSpace(desc), Amount: amt, OccurredAt: at})
}

func (c *converter) addExpense(legacyID, desc string, amt money.Amount, at time.Time, ref catRef) {
	c.expenses = append(c.expenses, pendingExpense{
		entry: ledger.ExpenseEntry{ID: c.newID(legacyID), Description: strings.TrimSpace(desc), Amount: amt, OccurredAt: at},
		ref:   ref,
	})
}

// transactions decodes the combined [{id,type,name,amount,category}] list.
func (c *converter) transactions(b []byte) {
	for i, item := range c.array(KeyTransactions, b) {
		var o object
		if err := json.Unmarshal(item, &o); err != nil {
			c.warn(KeyTransactions, i, "not an object")
			continue
		}
		typ := ""
		if raw, ok := o.pick("type", "kind"); ok {
			typ, _ = text(raw)
		}
		id, _ := text(o["id"])
		desc := ""
		if raw, ok := o.pick("name", "description"); ok {
			desc, _ = text(raw)
		}
		amt := c.amount(KeyTransactions, i, o["amount"])
		dateRaw, hasDate := o.pick("date", "occurredAt")
		at := c.when(KeyTransactions, i, dateRaw, hasDate)
		switch strings.ToLower(strings.TrimSpace(typ)) {
		case "income":
			c.addIncome(id, desc, amt, at)
		case "expense":
			c.addExpense(id, desc, amt, at, c.ref(o))
		default:
			// without a type the record is kept as an expense so no spend is lost
			c.warn(KeyTransactions, i, "unknown transaction type", "type", typ)
			c.addExpense(id, desc, amt, at, c.ref(o))
		}
	}
}

// ref extracts the category reference of a legacy expense object.
func (c *converter) ref(o object) catRef {
	var r catRef
	if raw, ok := o.pick("categoryId", "category_id"); ok {
		r.id, _ = text(raw)
	}
	if raw, ok := o.pick("category"); ok {
		var nested object
		if json.Unmarshal(raw, &nested) == nil {
			if v, ok := nested.pick("id"); ok && r.id == "" {
				r.id, _ = text(v)
			}
			if v, ok := nested.pick("name"); ok {
				r.name, _ = text(v)
			}
		} else {
			r.name, _ = text(raw)
		}
	}
	return r
}

// entryList decodes incomes/expenses stored as numbers, numeric strings or objects.
func (c *converter) entryList(key string, b []byte, expense bool) {
	for i, item := range c.array(key, b) {
		var o object
		if err := json.Unmarshal(item, &o); err != nil {
			amt := c.amount(key, i, item)
			if expense {
				c.addExpense("", "", amt, c.stamp(), catRef{})
			} else {
				c.addIncome("", "", amt, c.stamp())
			}
			continue
		}
		id, _ := text(o["id"])
		desc := ""
		if raw, ok := o.pick("description", "name", "desc"); ok {
			desc, _ = text(raw)
		}
		amt := c.amount(key, i, o["amount"])
		dateRaw, hasDate := o.pick("occurredAt", "date", "createdAt")
		at := c.when(key, i, dateRaw, hasDate)
		if expense {
			c.addExpense(id, desc, amt, at, c.ref(o))
		} else {
			c.addIncome(id, desc, amt, at)
		}
	}
}

// zipped decodes the per-field key layout, pairing values by index.
func (c *converter) zipped(key string, namesB, amountsB, catsB []byte, expense bool) {
	names := c.array(key, namesB)
	amounts := c.array(key, amountsB)
	cats := c.array(key, catsB)
	n := max(len(names), len(amounts))
	if len(names) != len(amounts) && n > 0 {
		c.warn(key, -1, "name/amount length mismatch", "names", len(names), "amounts", len(amounts))
	}
	for i := 0; i < n; i++ {
		var desc string
		if i < len(names) {
			desc, _ = text(names[i])
		}
		var amtRaw json.RawMessage
		if i < len(amounts) {
			amtRaw = amounts[i]
		}
		amt := c.amount(key, i, amtRaw)
		if !expense {
			c.addIncome("", desc, amt, c.stamp())
			continue
		}
		var r catRef
		if i < len(cats) {
			r.name, _ = text(cats[i])
		}
		c.addExpense("", desc, amt, c.stamp(), r)
	}
}

// categories decodes strings or {id,name,budget,type,carryForward} objects.
// Case-insensitive duplicates keep the first occurrence.
func (c *converter) categories(b []byte) {
	for i, item := range c.array(KeyCategories, b) {
		var name string
		var o object
		if err := json.Unmarshal(item, &o); err != nil {
			if s, ok := text(item); ok {
				name = s
			}
			c.addCategory(KeyCategories, i, "", name, ledger.AllocationFixed, decimal.MustNew(0, 0), c.zero)
			continue
		}
		legacyID, _ := text(o["id"])
		if raw, ok := o.pick("name", "title"); ok {
			name, _ = text(raw)
		}
		typ := ledger.AllocationFixed
		if raw, ok := o.pick("allocationType", "type"); ok {
			s, _ := text(raw)
			typ = allocationType(s)
			if typ == "" {
				c.warn(KeyCategories, i, "unknown allocation type", "type", s)
				typ = ledger.AllocationFixed
			}
		}
		value := decimal.MustNew(0, 0)
		if raw, ok := o.pick("allocationValue", "allocation", "budget", "limit"); ok {
			if d, ok := number(raw); ok {
				value = d
			} else {
				c.warn(KeyCategories, i, "unparseable allocation", "value", string(raw))
			}
		}
		carry := c.zero
		if raw, ok := o.pick("carryForward"); ok {
			carry = c.amount(KeyCategories, i, raw)
		}
		c.addCategory(KeyCategories, i, legacyID, name, typ, value, carry)
	}
}

func allocationType(s string) ledger.AllocationType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "amount":
		return ledger.AllocationFixed
	case "percent", "percentage", "percent_of_income", "percentofincome", "pct":
		return ledger.AllocationPercentOfIncome
	}
	return ""
}

func (c *converter) addCategory(key string, index int, legacyID, name string, typ ledger.AllocationType, value decimal.Decimal, carry money.Amount) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Category %d", index+1)
		c.warn(key, index, "empty category name", "name", name)
	}
	if value.IsNeg() {
		c.warn(key, index, "negative allocation", "value", value.String())
		value = decimal.MustNew(0, 0)
	}
	if typ == ledger.AllocationPercentOfIncome && value.Cmp(hundred) > 0 {
		c.warn(key, index, "percentage above 100", "value", value.String())
		value = hundred
	}
	if typ == ledger.AllocationFixed && !ledger.InRange(value) {
		c.warn(key, index, "allocation out of range", "value", value.String())
		value = decimal.MustNew(0, 0)
	}
	nk := ledger.NameKey(name)
	if kept, ok := c.byKey[nk]; ok {
		c.rep.DroppedCategories++
		c.log.Warn("duplicate legacy category dropped", "key", key, "index", index, "name", name, "kept", c.cats[kept].Name)
		if legacyID != "" {
			c.dupes[legacyID] = c.cats[kept].ID
		}
		return
	}
	cat := ledger.Category{ID: c.newID(legacyID), Name: name, AllocationType: typ, AllocationValue: value, CarryForward: carry, CreatedAt: c.now}
	c.byKey[nk] = len(c.cats)
	c.cats = append(c.cats, cat)
	if legacyID != "" {
		c.byLegacy[legacyID] = cat.ID
	}
}

// budgets applies a {name: amount} map as fixed allocations, creating
// categories that do not exist yet. Names are processed in sorted order.
func (c *converter) budgets(b []byte) {
	if len(b) == 0 {
		return
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		c.warn(KeyBudgets, -1, "not an object", "err", err)
		return
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, n := range names {
		d, ok := number(m[n])
		if !ok {
			c.warn(KeyBudgets, i, "unparseable budget", "name", n)
			d = decimal.MustNew(0, 0)
		}
		if idx, ok := c.byKey[ledger.NameKey(n)]; ok {
			if d.IsNeg() {
				c.warn(KeyBudgets, i, "negative allocation", "name", n)
				d = decimal.MustNew(0, 0)
			}
			c.cats[idx].AllocationType = ledger.AllocationFixed
			c.cats[idx].AllocationValue = d
			continue
		}
		c.addCategory(KeyBudgets, i, "", n, ledger.AllocationFixed, d, c.zero)
	}
}

func (c *converter) seed() {
	seed := c.opts.Seed
	if seed == nil {
		seed = DefaultSeed
	}
	for i, s := range seed {
		typ := allocationType(s.Type)
		if typ == "" {
			c.warn("seed", i, "unknown allocation type", "type", s.Type)
			typ = ledger.AllocationFixed
		}
		v, err := decimal.Parse(strings.TrimSpace(s.Value))
		if err != nil {
			c.warn("seed", i, "unparseable value", "value", s.Value)
			v = decimal.MustNew(0, 0)
		}
		c.addCategory("seed", i, "", s.Name, typ, v, c.zero)
	}
	c.rep.Seeded = len(c.cats) > 0
}

func (c *converter) fallbackCategory() uuid.UUID {
	if c.fallback != nil {
		return *c.fallback
	}
	if idx, ok := c.byKey[ledger.NameKey(FallbackCategoryName)]; ok {
		id := c.cats[idx].ID
		c.fallback = &id
		return id
	}
	c.addCategory("fallback", len(c.cats), "", FallbackCategoryName, ledger.AllocationFixed, decimal.MustNew(0, 0), c.zero)
	id := c.cats[len(c.cats)-1].ID
	c.fallback = &id
	return id
}

// resolveExpenses binds every pending expense to a live category. Id
// references win over names. Unknown names become new categories; unknown or
// empty ids use the fallback category. Expenses of dropped duplicates are
// dropped unless reassignment is enabled.
func (c *converter) resolveExpenses() []ledger.ExpenseEntry {
	out := make([]ledger.ExpenseEntry, 0, len(c.expenses))
	for i, p := range c.expenses {
		e := p.entry
		switch {
		case p.ref.id != "" && c.byLegacy[p.ref.id] != uuid.Nil:
			e.CategoryID = c.byLegacy[p.ref.id]
		case p.ref.id != "" && c.dupes[p.ref.id] != uuid.Nil:
			if !c.opts.ReassignDuplicateExpenses {
				c.rep.DroppedExpenses++
				c.log.Warn("expense of dropped duplicate category dropped", "index", i, "category_ref", p.ref.id)
				continue
			}
			c.rep.ReassignedExpenses++
			e.CategoryID = c.dupes[p.ref.id]
		case strings.TrimSpace(p.ref.name) != "":
			if idx, ok := c.byKey[ledger.NameKey(p.ref.name)]; ok {
				e.CategoryID = c.cats[idx].ID
				break
			}
			c.warn("expenses", i, "unknown category name, creating it", "name", p.ref.name)
			c.addCategory("expenses", i, "", p.ref.name, ledger.AllocationFixed, decimal.MustNew(0, 0), c.zero)
			e.CategoryID = c.cats[len(c.cats)-1].ID
		default:
			if p.ref.id != "" {
				c.warn("expenses", i, "unknown category id", "category_ref", p.ref.id)
			}
			e.CategoryID = c.fallbackCategory()
		}
		out = append(out, e)
	}
	return out
}

// goal decodes a number (fixed target) or a {type, value} object.
func (c *converter) goal(b []byte) *ledger.SavingsGoal {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if d, ok := number(b); ok {
		if d.IsNeg() {
			c.warn(KeySavingsGoal, -1, "negative goal")
			return nil
		}
		return &ledger.SavingsGoal{Type: ledger.AllocationFixed, Value: d}
	}
	var o object
	if err := json.Unmarshal(b, &o); err != nil {
		c.warn(KeySavingsGoal, -1, "unrecognised goal shape")
		return nil
	}
	s := ""
	if raw, ok := o.pick("type", "allocationType"); ok {
		s, _ = text(raw)
	}
	typ := allocationType(s)
	if typ == "" {
		c.warn(KeySavingsGoal, -1, "unknown goal type", "type", s)
		typ = ledger.AllocationFixed
	}
	raw, _ := o.pick("value", "amount", "target")
	d, ok := number(raw)
	if !ok || d.IsNeg() {
		c.warn(KeySavingsGoal, -1, "unusable goal value", "value", string(raw))
		return nil
	}
	if typ == ledger.AllocationPercentOfIncome && d.Cmp(hundred) > 0 {
		c.warn(KeySavingsGoal, -1, "percentage above 100", "value", d.String())
		d = hundred
	}
	return &ledger.SavingsGoal{Type: typ, Value: d}
}

func (c *converter) lastMonth(b []byte) ledger.Period {
	if len(b) == 0 {
		return ledger.Period{}
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// some variants stored the bare string without JSON quoting
		s = string(b)
	}
	p, err := ledger.ParsePeriod(s)
	if err != nil {
		c.warn(KeyLastMonth, -1, "unparseable period", "value", s)
		return ledger.Period{}
	}
	return p
}
