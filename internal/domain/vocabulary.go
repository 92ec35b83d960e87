package domain

import "slices"

type TagSynonym struct {
	Keyword string
	Tag     string
}

// Vocabulary is the hand-maintained knowledge the extractor and canonicalizer
// consult before anything else: aliases, overrides and keyword tables.
type Vocabulary struct {
	SchoolAliases      map[string]string
	CanonicalOverrides []string
	StaffAliases       map[string]string
	StaffShortNames    []string
	AllowedSpeakers    []string
	SubjectKeywords    []string
	ActivityTags       []string
	TagSynonyms        []TagSynonym
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		SchoolAliases: map[string]string{
			"숭덕여중":    "숭덕여자중학교",
			"숭덕여자중":   "숭덕여자중학교",
			"숭덕여자중학교": "숭덕여자중학교",
			"숭덕중":     "숭덕중학교",
		},
		CanonicalOverrides: []string{"성남동중학교", "서울삼광초등학교", "신광초등학교"},
		StaffAliases: map[string]string{
			"씨마스 임준호":    "임준호",
			"씨마스 임준호 차장": "임준호",
			"임준호차장":      "임준호",
			"임준호":        "임준호",
			"씨마스 조영환":    "조영환",
			"씨마스 조영환 부장": "조영환",
			"조영환 부장":     "조영환",
			"조영환":        "조영환",
			"씨마스 송훈재":    "송훈재",
			"씨마스 송훈재 부장": "송훈재",
			"송훈재 부장":     "송훈재",
			"송훈재":        "송훈재",
		},
		StaffShortNames: []string{"임준호", "조영환", "송훈재"},
		AllowedSpeakers: []string{"씨마스 송훈재", "씨마스 임준호", "씨마스 조영환"},
		SubjectKeywords: []string{"정보", "진로", "수학", "영어", "국어", "과학", "사회", "도서", "단행본", "워크북"},
		ActivityTags:    []string{"명함", "재방문", "티칭샘소개", "구글클래스룸", "패들렛", "하이러닝", "비상", "워크북안내", "포스터", "연수안내", "브로슈어"},
		TagSynonyms: []TagSynonym{
			{Keyword: "티칭샘", Tag: "티칭샘소개"},
			{Keyword: "티칭샘소개", Tag: "티칭샘소개"},
			{Keyword: "연수", Tag: "연수안내"},
			{Keyword: "연수안내", Tag: "연수안내"},
			{Keyword: "브로셔", Tag: "브로슈어"},
			{Keyword: "브로슈어", Tag: "브로슈어"},
			{Keyword: "포스터", Tag: "포스터"},
			{Keyword: "워크북", Tag: "워크북안내"},
			{Keyword: "명함인사", Tag: "명함"},
		},
	}
}

// Merge layers other on top of v. Map entries in other win, list entries are
// appended when not already present.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	return Vocabulary{
		SchoolAliases:      mergeMap(v.SchoolAliases, other.SchoolAliases),
		CanonicalOverrides: mergeList(v.CanonicalOverrides, other.CanonicalOverrides),
		StaffAliases:       mergeMap(v.StaffAliases, other.StaffAliases),
		StaffShortNames:    mergeList(v.StaffShortNames, other.StaffShortNames),
		AllowedSpeakers:    mergeList(v.AllowedSpeakers, other.AllowedSpeakers),
		SubjectKeywords:    mergeList(v.SubjectKeywords, other.SubjectKeywords),
		ActivityTags:       mergeList(v.ActivityTags, other.ActivityTags),
		TagSynonyms:        mergeSynonyms(v.TagSynonyms, other.TagSynonyms),
	}
}

func (v Vocabulary) IsOverride(token string) bool {
	return slices.Contains(v.CanonicalOverrides, token)
}

func mergeMap(base, top map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(top))
	for k, val := range base {
		out[k] = val
	}
	for k, val := range top {
		out[k] = val
	}

	return out
}

func mergeList(base, top []string) []string {
	out := append([]string(nil), base...)
	for _, item := range top {
		if item == "" || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}

	return out
}

func mergeSynonyms(base, top []TagSynonym) []TagSynonym {
	out := append([]TagSynonym(nil), base...)
	for _, syn := range top {
		replaced := false
		for i := range out {
			if out[i].Keyword == syn.Keyword {
				out[i] = syn
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, syn)
		}
	}

	return out
}
