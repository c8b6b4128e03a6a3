package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/millcert/internal/domain/checklist"
	scoring "github.com/okian/millcert/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func weight(w float64) *float64 { return &w }

func target(v checklist.Value) *checklist.Value { return &v }

// moistureItem is the MAJOR numeric item used by the tolerance scenarios.
func moistureItem() checklist.Item {
	return checklist.Item{
		ID:           "moisture",
		Question:     "Flour moisture content",
		ResponseType: checklist.ResponseNumeric,
		Criticality:  checklist.CriticalityMajor,
		Weight:       weight(5),
		TargetValue:  target(checklist.Number(30)),
		TargetRange:  &checklist.Range{Min: 20, Max: 40},
		Unit:         "ppm",
	}
}

func oneSection(items ...checklist.Item) []checklist.Section {
	return []checklist.Section{{ID: "s1", Name: "Production", Items: items}}
}

func answer(id string, v checklist.Value) checklist.Response {
	return checklist.Response{ItemID: id, Value: v}
}

func TestEvaluate(t *testing.T) {
	Convey("Given the default rules", t, func() {
		rules := scoring.DefaultRules()

		Convey("When a YES_NO item is answered", func() {
			item := checklist.Item{ID: "q", Question: "Doser running", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical}

			Convey("Then boolean true earns the tier weight", func() {
				ev := scoring.Evaluate(item, answer("q", checklist.Bool(true)), rules)
				So(ev.Points, ShouldEqual, 10)
				So(ev.MaxPoints, ShouldEqual, 10)
				So(ev.Compliant, ShouldBeTrue)
			})

			Convey("And the literal YES is accepted", func() {
				ev := scoring.Evaluate(item, answer("q", checklist.Text("YES")), rules)
				So(ev.Compliant, ShouldBeTrue)
			})

			Convey("And anything else scores zero", func() {
				for _, v := range []checklist.Value{checklist.Bool(false), checklist.Text("NO"), checklist.Text("yes"), checklist.Number(1)} {
					ev := scoring.Evaluate(item, answer("q", v), rules)
					So(ev.Points, ShouldEqual, 0)
					So(ev.Compliant, ShouldBeFalse)
				}
			})
		})

		Convey("When a NUMERIC item is answered", func() {
			item := moistureItem()

			Convey("Then a value in the optimal band earns full points", func() {
				ev := scoring.Evaluate(item, answer("moisture", checklist.Number(30)), rules)
				So(ev.Points, ShouldEqual, 5)
				So(ev.Compliant, ShouldBeTrue)

				ev = scoring.Evaluate(item, answer("moisture", checklist.Number(31)), rules)
				So(ev.Compliant, ShouldBeTrue)
			})

			Convey("And a value in range but off target earns half and is non-compliant", func() {
				ev := scoring.Evaluate(item, answer("moisture", checklist.Number(35)), rules)
				So(ev.Points, ShouldEqual, 2.5)
				So(ev.Compliant, ShouldBeFalse)
			})

			Convey("And a value outside the range earns nothing", func() {
				ev := scoring.Evaluate(item, answer("moisture", checklist.Number(50)), rules)
				So(ev.Points, ShouldEqual, 0)
				So(ev.Compliant, ShouldBeFalse)
			})

			Convey("And numeric text is parsed", func() {
				ev := scoring.Evaluate(item, answer("moisture", checklist.Text(" 30 ")), rules)
				So(ev.Points, ShouldEqual, 5)
			})

			Convey("And unparsable or non-finite input scores zero without panicking", func() {
				for _, v := range []checklist.Value{checklist.Text("abc"), checklist.Bool(true), checklist.Number(math.NaN()), checklist.Number(math.Inf(1))} {
					ev := scoring.Evaluate(item, answer("moisture", v), rules)
					So(ev.Points, ShouldEqual, 0)
					So(ev.Compliant, ShouldBeFalse)
				}
			})

			Convey("And the midpoint is the target when none is configured", func() {
				item.TargetValue = nil
				item.TargetRange = &checklist.Range{Min: 10, Max: 50}
				So(scoring.Evaluate(item, answer("moisture", checklist.Number(30)), rules).Compliant, ShouldBeTrue)
				So(scoring.Evaluate(item, answer("moisture", checklist.Number(40)), rules).Points, ShouldEqual, 2.5)
			})

			Convey("And an item without a range scores zero", func() {
				item.TargetRange = nil
				ev := scoring.Evaluate(item, answer("moisture", checklist.Number(30)), rules)
				So(ev.Points, ShouldEqual, 0)
				So(ev.MaxPoints, ShouldEqual, 5)
			})
		})

		Convey("When a choice item is answered", func() {
			item := checklist.Item{
				ID: "premix", Question: "Premix supplier", ResponseType: checklist.ResponseDropdown,
				Criticality: checklist.CriticalityMinor, TargetValue: target(checklist.Text("Certified")),
			}

			Convey("Then only an exact match earns points", func() {
				So(scoring.Evaluate(item, answer("premix", checklist.Text("Certified")), rules).Points, ShouldEqual, 2)
				So(scoring.Evaluate(item, answer("premix", checklist.Text("certified")), rules).Points, ShouldEqual, 0)
			})

			Convey("And multiple choice compares the whole selection", func() {
				item.ResponseType = checklist.ResponseMultipleChoice
				item.TargetValue = target(checklist.Choice("iron", "zinc"))
				So(scoring.Evaluate(item, answer("premix", checklist.Choice("zinc", "iron")), rules).Compliant, ShouldBeTrue)
				So(scoring.Evaluate(item, answer("premix", checklist.Choice("iron")), rules).Compliant, ShouldBeFalse)
			})
		})

		Convey("When a TEXT item is answered", func() {
			item := checklist.Item{ID: "notes", Question: "Describe corrective actions", ResponseType: checklist.ResponseText, Criticality: checklist.CriticalityMinor}

			Convey("Then non-blank text is compliant and blank is not", func() {
				So(scoring.Evaluate(item, answer("notes", checklist.Text("replaced filter")), rules).Compliant, ShouldBeTrue)
				So(scoring.Evaluate(item, answer("notes", checklist.Text("   ")), rules).Compliant, ShouldBeFalse)
				So(scoring.Evaluate(item, answer("notes", checklist.Value{}), rules).Compliant, ShouldBeFalse)
			})

			Convey("Then a non-text answer earns nothing", func() {
				for _, v := range []checklist.Value{checklist.Bool(false), checklist.Bool(true), checklist.Number(0), checklist.Choice("a", "b")} {
					ev := scoring.Evaluate(item, answer("notes", v), rules)
					So(ev.Compliant, ShouldBeFalse)
					So(ev.Points, ShouldEqual, float64(0))
				}
			})
		})

		Convey("When an explicit weight of zero is set", func() {
			item := checklist.Item{ID: "z", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical, Weight: weight(0)}

			Convey("Then it overrides the tier weight", func() {
				So(scoring.MaxPoints(item, rules), ShouldEqual, 0)
			})
		})
	})
}

func TestNumericMonotonicity(t *testing.T) {
	Convey("Given the numeric tolerance item", t, func() {
		rules := scoring.DefaultRules()
		item := moistureItem()

		Convey("When the value moves strictly closer to the target", func() {
			values := []float64{45, 40, 38, 33, 31.5, 31, 30.5, 30}

			Convey("Then points never decrease", func() {
				prev := -1.0
				for _, x := range values {
					p := scoring.Evaluate(item, answer("moisture", checklist.Number(x)), rules).Points
					So(p, ShouldBeGreaterThanOrEqualTo, prev)
					prev = p
				}
			})
		})
	})
}

func TestScoreSection(t *testing.T) {
	Convey("Given a section with mixed items", t, func() {
		rules := scoring.DefaultRules()
		section := checklist.Section{
			ID:   "s1",
			Name: "Dosing",
			Items: []checklist.Item{
				{ID: "a", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical},
				{ID: "b", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMajor},
				{ID: "c", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor, Weight: weight(3)},
			},
		}

		Convey("When no responses exist", func() {
			ss := scoring.ScoreSection(section, nil, rules)

			Convey("Then the total still equals the sum of weights", func() {
				So(ss.TotalPoints, ShouldEqual, 18)
				So(ss.AchievedPoints, ShouldEqual, 0)
				So(ss.Percentage, ShouldEqual, 0)
				So(ss.AnsweredItems, ShouldEqual, 0)
				So(ss.Passed, ShouldBeTrue)
			})
		})

		Convey("When some items are answered", func() {
			idx := checklist.IndexResponses([]checklist.Response{
				answer("a", checklist.Bool(true)),
				answer("b", checklist.Bool(false)),
			})
			ss := scoring.ScoreSection(section, idx, rules)

			Convey("Then answered and missing items both count toward the total", func() {
				So(ss.TotalPoints, ShouldEqual, 18)
				So(ss.AchievedPoints, ShouldEqual, 10)
				So(ss.Percentage, ShouldAlmostEqual, 55.5555, 0.001)
				So(ss.AnsweredItems, ShouldEqual, 2)
				So(ss.CompliantItems, ShouldEqual, 1)
				So(ss.ItemCount, ShouldEqual, 3)
			})

			Convey("And a threshold above the percentage fails the section", func() {
				section.MinimumThreshold = weight(60)
				So(scoring.ScoreSection(section, idx, rules).Passed, ShouldBeFalse)
				section.MinimumThreshold = weight(55)
				So(scoring.ScoreSection(section, idx, rules).Passed, ShouldBeTrue)
			})
		})

		Convey("When every item has zero weight", func() {
			empty := checklist.Section{ID: "z", Items: []checklist.Item{
				{ID: "z1", ResponseType: checklist.ResponseYesNo, Weight: weight(0)},
			}}
			ss := scoring.ScoreSection(empty, checklist.IndexResponses([]checklist.Response{answer("z1", checklist.Bool(true))}), rules)

			Convey("Then the percentage is zero rather than NaN", func() {
				So(ss.TotalPoints, ShouldEqual, 0)
				So(ss.Percentage, ShouldEqual, 0)
				So(math.IsNaN(ss.Percentage), ShouldBeFalse)
			})
		})
	})
}

func TestCalculateOverallScore(t *testing.T) {
	Convey("Given the default rules", t, func() {
		rules := scoring.DefaultRules()

		Convey("When a critical yes/no item fails", func() {
			sections := oneSection(checklist.Item{
				ID: "doser", Question: "Is the doser operational?", ResponseType: checklist.ResponseYesNo,
				Criticality: checklist.CriticalityCritical, Weight: weight(10),
			})
			res := scoring.CalculateOverallScore(sections, []checklist.Response{answer("doser", checklist.Text("NO"))}, rules)

			Convey("Then the audit is non-compliant with one priority-1 flag", func() {
				So(res.AchievedPoints, ShouldEqual, 0)
				So(res.TotalPoints, ShouldEqual, 10)
				So(res.Category, ShouldEqual, scoring.CategoryNonCompliant)
				So(res.Passed, ShouldBeFalse)
				So(res.RedFlags, ShouldHaveLength, 1)
				So(res.RedFlags[0].Priority, ShouldEqual, 1)
				So(res.RedFlags[0].Issue, ShouldEqual, "Failed check: Is the doser operational?")
				So(res.CriticalFailures, ShouldEqual, 1)
			})
		})

		Convey("When a numeric value is on target", func() {
			res := scoring.CalculateOverallScore(oneSection(moistureItem()), []checklist.Response{answer("moisture", checklist.Number(30))}, rules)

			Convey("Then full points and no flag", func() {
				So(res.AchievedPoints, ShouldEqual, 5)
				So(res.RedFlags, ShouldBeEmpty)
				So(res.OverallPercentage, ShouldEqual, 100)
				So(res.Category, ShouldEqual, scoring.CategoryExcellent)
			})
		})

		Convey("When a numeric value is in range but off target", func() {
			res := scoring.CalculateOverallScore(oneSection(moistureItem()), []checklist.Response{answer("moisture", checklist.Number(35))}, rules)

			Convey("Then half points and one major flag", func() {
				So(res.AchievedPoints, ShouldEqual, 2.5)
				So(res.RedFlags, ShouldHaveLength, 1)
				So(res.RedFlags[0].Priority, ShouldEqual, 2)
				So(res.RedFlags[0].Criticality, ShouldEqual, checklist.CriticalityMajor)
				So(res.RedFlags[0].Issue, ShouldContainSubstring, "35 ppm")
				So(res.MajorFailures, ShouldEqual, 1)
			})
		})

		Convey("When a numeric value is out of range", func() {
			res := scoring.CalculateOverallScore(oneSection(moistureItem()), []checklist.Response{answer("moisture", checklist.Number(50))}, rules)

			Convey("Then zero points and one flag", func() {
				So(res.AchievedPoints, ShouldEqual, 0)
				So(res.RedFlags, ShouldHaveLength, 1)
				So(res.RedFlags[0].Issue, ShouldContainSubstring, "outside the acceptable range 20 ppm to 40 ppm")
			})
		})

		Convey("When a critical item fails but the percentage is excellent", func() {
			items := []checklist.Item{
				{ID: "crit", Question: "Critical check", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical, Weight: weight(1)},
			}
			for _, id := range []string{"m1", "m2", "m3", "m4"} {
				items = append(items, checklist.Item{ID: id, ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMajor, Weight: weight(25)})
			}
			responses := []checklist.Response{
				answer("crit", checklist.Bool(false)),
				answer("m1", checklist.Bool(true)), answer("m2", checklist.Bool(true)),
				answer("m3", checklist.Bool(true)), answer("m4", checklist.Bool(true)),
			}

			Convey("Then auto-fail forces NON_COMPLIANT", func() {
				res := scoring.CalculateOverallScore(oneSection(items...), responses, rules)
				So(res.OverallPercentage, ShouldBeGreaterThan, rules.ExcellentThreshold)
				So(res.Category, ShouldEqual, scoring.CategoryNonCompliant)
			})

			Convey("And without auto-fail the percentage decides", func() {
				rules.AutoFailOnCritical = false
				res := scoring.CalculateOverallScore(oneSection(items...), responses, rules)
				So(res.Category, ShouldEqual, scoring.CategoryExcellent)
				So(res.Passed, ShouldBeTrue)
			})
		})

		Convey("When flags of every tier are raised", func() {
			sections := []checklist.Section{
				{ID: "s1", Items: []checklist.Item{
					{ID: "minor1", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor},
					{ID: "major1", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMajor},
				}},
				{ID: "s2", Items: []checklist.Item{
					{ID: "crit1", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical},
					{ID: "minor2", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor},
					{ID: "crit2", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical},
					{ID: "unanswered", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical},
				}},
			}
			var responses []checklist.Response
			for _, id := range []string{"minor1", "major1", "crit1", "minor2", "crit2"} {
				responses = append(responses, answer(id, checklist.Bool(false)))
			}
			res := scoring.CalculateOverallScore(sections, responses, rules)

			Convey("Then flags are ordered critical, major, minor with template order kept", func() {
				ids := make([]string, 0, len(res.RedFlags))
				for _, f := range res.RedFlags {
					ids = append(ids, f.ItemID)
				}
				So(ids, ShouldResemble, []string{"crit1", "crit2", "major1", "minor1", "minor2"})
				So(res.CriticalFailures, ShouldEqual, 2)
				So(res.MajorFailures, ShouldEqual, 1)
				So(res.MinorFailures, ShouldEqual, 2)
			})

			Convey("And the unanswered item is not flagged but still weighs in", func() {
				for _, f := range res.RedFlags {
					So(f.ItemID, ShouldNotEqual, "unanswered")
				}
				So(res.TotalPoints, ShouldEqual, 2+5+10+2+10+10)
			})
		})

		Convey("When the same inputs are scored twice", func() {
			sections := oneSection(moistureItem(), checklist.Item{ID: "y", Question: "Premix storage is dry", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor})
			responses := []checklist.Response{answer("moisture", checklist.Number(36)), answer("y", checklist.Bool(false))}

			Convey("Then the results are identical", func() {
				So(scoring.CalculateOverallScore(sections, responses, rules), ShouldResemble, scoring.CalculateOverallScore(sections, responses, rules))
			})
		})

		Convey("When there are no sections", func() {
			res := scoring.CalculateOverallScore(nil, nil, rules)

			Convey("Then the result is empty and non-compliant", func() {
				So(res.OverallPercentage, ShouldEqual, 0)
				So(res.Category, ShouldEqual, scoring.CategoryNonCompliant)
				So(res.RedFlags, ShouldNotBeNil)
				So(res.SectionScores, ShouldNotBeNil)
			})
		})
	})
}

func TestCategorize(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		rules := scoring.DefaultRules()

		Convey("Then percentages map to categories from the top down", func() {
			So(scoring.Categorize(95, 0, rules), ShouldEqual, scoring.CategoryExcellent)
			So(scoring.Categorize(90, 0, rules), ShouldEqual, scoring.CategoryExcellent)
			So(scoring.Categorize(80, 0, rules), ShouldEqual, scoring.CategoryGood)
			So(scoring.Categorize(65, 0, rules), ShouldEqual, scoring.CategoryNeedsImprovement)
			So(scoring.Categorize(10, 0, rules), ShouldEqual, scoring.CategoryNonCompliant)
		})

		Convey("And misordered thresholds still apply in precedence order", func() {
			rules.GoodThreshold = 95
			So(scoring.Categorize(96, 0, rules), ShouldEqual, scoring.CategoryExcellent)
			So(scoring.Categorize(92, 0, rules), ShouldEqual, scoring.CategoryExcellent)
			So(scoring.Categorize(80, 0, rules), ShouldEqual, scoring.CategoryNeedsImprovement)
		})
	})
}

func TestWhatIfAnalysis(t *testing.T) {
	Convey("Given an audit with an in-range but off-target value", t, func() {
		rules := scoring.DefaultRules()
		sections := oneSection(moistureItem())
		current := []checklist.Response{answer("moisture", checklist.Number(35))}

		Convey("When the value is fixed to the target", func() {
			p := scoring.WhatIfAnalysis(sections, current, map[string]checklist.Value{"moisture": checklist.Number(30)}, rules)

			Convey("Then the improvement is the percentage-point gain", func() {
				So(p.CurrentScore.OverallPercentage, ShouldEqual, 50)
				So(p.ProjectedScore.OverallPercentage, ShouldEqual, 100)
				So(p.Improvement, ShouldEqual, 50)
				So(p.ItemsToFix, ShouldResemble, []string{"moisture"})
				So(p.ProjectedScore.RedFlags, ShouldBeEmpty)
			})

			Convey("And the caller's responses are untouched", func() {
				x, _ := current[0].Value.Number()
				So(x, ShouldEqual, 35)
			})
		})

		Convey("When several items are changed", func() {
			changes := map[string]checklist.Value{
				"zinc":     checklist.Bool(true),
				"moisture": checklist.Number(30),
				"iron":     checklist.Bool(true),
			}
			p := scoring.WhatIfAnalysis(sections, current, changes, rules)

			Convey("Then the items to fix are listed by item id", func() {
				So(p.ItemsToFix, ShouldResemble, []string{"iron", "moisture", "zinc"})
			})
		})

		Convey("When the change makes things worse", func() {
			p := scoring.WhatIfAnalysis(sections, current, map[string]checklist.Value{"moisture": checklist.Number(90)}, rules)

			Convey("Then the improvement is negative", func() {
				So(p.Improvement, ShouldEqual, -50)
			})
		})

		Convey("When the change targets an unanswered item", func() {
			sections = oneSection(moistureItem(), checklist.Item{ID: "extra", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor})
			p := scoring.WhatIfAnalysis(sections, current, map[string]checklist.Value{"extra": checklist.Bool(true)}, rules)

			Convey("Then no response is synthesized", func() {
				So(p.Improvement, ShouldEqual, 0)
				So(p.ItemsToFix, ShouldResemble, []string{"extra"})
			})
		})
	})
}

func TestKeywordRecommender(t *testing.T) {
	Convey("Given the default recommender", t, func() {
		rec := scoring.NewKeywordRecommender()

		Convey("When the question mentions doser calibration", func() {
			text := rec.Recommend(checklist.Item{Question: "Was the Doser Calibration verified this month?"})

			Convey("Then the calibration advice is returned", func() {
				So(text, ShouldContainSubstring, "Recalibrate the doser")
			})
		})

		Convey("When the question mentions premix storage", func() {
			So(rec.Recommend(checklist.Item{Question: "Premix storage area is dry"}), ShouldContainSubstring, "Store premix")
		})

		Convey("When the question mentions quality control or records", func() {
			So(rec.Recommend(checklist.Item{Question: "Quality control tests performed"}), ShouldContainSubstring, "quality control sampling plan")
			So(rec.Recommend(checklist.Item{Question: "Production records available"}), ShouldContainSubstring, "records")
			So(rec.Recommend(checklist.Item{Question: "Documentation complete"}), ShouldContainSubstring, "records")
		})

		Convey("When an item carries a known tag", func() {
			text := rec.Recommend(checklist.Item{Question: "Something unrelated", Tags: []string{"unknown", "Labeling"}})

			Convey("Then the tag wins over keywords", func() {
				So(text, ShouldContainSubstring, "Correct product labels")
			})
		})

		Convey("When nothing matches", func() {
			So(rec.Recommend(checklist.Item{Question: "Gate is locked"}), ShouldEqual, "Review and address non-compliance for: Gate is locked")
		})

		Convey("When tag recommendations are overridden", func() {
			custom := scoring.NewKeywordRecommender(scoring.WithTagRecommendations(map[string]string{"gate": "Lock the gate."}))
			So(custom.Recommend(checklist.Item{Question: "Gate is locked", Tags: []string{"gate"}}), ShouldEqual, "Lock the gate.")
		})
	})
}

type fixedRecommender string

func (f fixedRecommender) Recommend(checklist.Item) string { return string(f) }

func TestEngine(t *testing.T) {
	Convey("Given an engine with custom rules and recommender", t, func() {
		rules := scoring.DefaultRules()
		rules.CriticalWeight = 20
		engine := scoring.NewEngine(scoring.WithRules(rules), scoring.WithRecommender(fixedRecommender("fix it")))
		tmpl := checklist.Template{ID: "t", Sections: oneSection(checklist.Item{ID: "c", Question: "Critical", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical})}

		Convey("When scoring", func() {
			res, err := engine.Score(context.Background(), tmpl, []checklist.Response{answer("c", checklist.Bool(false))})

			Convey("Then the bound rules and recommender are used", func() {
				So(err, ShouldBeNil)
				So(res.TotalPoints, ShouldEqual, 20)
				So(res.RedFlags[0].Recommendation, ShouldEqual, "fix it")
				So(engine.Rules().CriticalWeight, ShouldEqual, 20)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then scoring returns the context error", func() {
				_, err := engine.Score(ctx, tmpl, nil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, err = engine.WhatIf(ctx, tmpl, nil, nil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When scoring concurrently", func() {
			responses := []checklist.Response{answer("c", checklist.Bool(true))}
			results := make(chan scoring.Result, 10)
			for i := 0; i < 10; i++ {
				go func() {
					res, _ := engine.Score(context.Background(), tmpl, responses)
					results <- res
				}()
			}

			Convey("Then every pass yields the same result", func() {
				first := <-results
				for i := 1; i < 10; i++ {
					So(<-results, ShouldResemble, first)
				}
			})
		})
	})
}
