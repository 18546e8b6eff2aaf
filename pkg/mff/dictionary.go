package mff

// Dictionary is a bidirectional hash<->SID map populated on first mention
// of every tx or outpoint. Entries are never removed; a referenced SID
// must already exist at read time (ErrUnknownSID otherwise). It belongs
// exclusively to whichever Writer or Reader is currently advancing the
// stream — no internal synchronization is provided.
type Dictionary struct {
	hashToSID map[Hash]SID
	sidToHash map[SID]Hash
	next      SID
}

// NewDictionary returns an empty dictionary; the first interned object
// receives SID 1 (0 is UnknownSID).
func NewDictionary() *Dictionary {
	return &Dictionary{
		hashToSID: make(map[Hash]SID),
		sidToHash: make(map[SID]Hash),
		next:      1,
	}
}

// SIDFor returns the SID interned for hash, if any.
func (d *Dictionary) SIDFor(hash Hash) (SID, bool) {
	sid, ok := d.hashToSID[hash]
	return sid, ok
}

// HashFor returns the hash interned under sid, if any.
func (d *Dictionary) HashFor(sid SID) (Hash, bool) {
	hash, ok := d.sidToHash[sid]
	return hash, ok
}

// Intern assigns a new SID to hash, or returns the existing one if hash
// was already interned. Interning is idempotent: it is always safe to
// call after writing or reading an object in full.
func (d *Dictionary) Intern(hash Hash) SID {
	if sid, ok := d.hashToSID[hash]; ok {
		return sid
	}
	sid := d.next
	d.next++
	d.hashToSID[hash] = sid
	d.sidToHash[sid] = hash
	return sid
}

// Len reports how many objects have been interned.
func (d *Dictionary) Len() int {
	return len(d.sidToHash)
}
