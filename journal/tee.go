package journal

// Tee fans every record out to each underlying journal, in order. The first
// error aborts the write; Close closes every journal and returns the first
// error seen.
type Tee []Journal

func NewTee(js ...Journal) Tee { return Tee(js) }

func (t Tee) RecordTrade(rec TradeRecord) error {
	for _, j := range t {
		if err := j.RecordTrade(rec); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) RecordEquity(rec EquityPoint) error {
	for _, j := range t {
		if err := j.RecordEquity(rec); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) RecordRejection(rec Rejection) error {
	for _, j := range t {
		if err := j.RecordRejection(rec); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Close() error {
	var first error
	for _, j := range t {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
