package xg

/**
* xg estimates football match outcomes from historical expected-goals data.
* Historical per-match xG records become per-team attack/defense strength
* ratings (the offline estimator), and strength ratings become most-likely
* scorelines via independent Poisson goal models (the predictor).
 */
